package gateway

import "errors"

var (
	ErrNoStateSecret = errors.New("gateway: COOKIE_SECRETS is required while RELAY_VERIFY_STATE is on")
	ErrBundle        = errors.New("gateway: front-end bundle unusable")
)
