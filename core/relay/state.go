package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/socialsync/pkg/kv"
)

// State is the blob carried across the OAuth hop. Origin, timestamp,
// source and referrer are debug metadata; the nonce is what is verified.
type State struct {
	Origin    string `json:"origin"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source"`
	Referrer  string `json:"referrer,omitempty"`
	Nonce     string `json:"nonce"`
}

// Encode returns the base64url JSON form.
func (s State) Encode() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Issued returns the issue time.
func (s State) Issued() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// DecodeState parses an encoded blob. Padded and standard base64 are
// accepted as well.
func DecodeState(encoded string) (State, error) {
	var raw []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding} {
		if raw, err = enc.DecodeString(encoded); err == nil {
			break
		}
	}
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return s, nil
}

// StateStore remembers issued nonces until they come back once.
type StateStore interface {
	Put(ctx context.Context, nonce string, ttl time.Duration) error
	// Take reports whether nonce was issued and not yet used, and forgets it.
	Take(ctx context.Context, nonce string) (bool, error)
}

type taker interface {
	Take(ctx context.Context, key string) ([]byte, bool, error)
}

// KVStateStore keeps nonces in a kv.Store. Stores with an atomic Take
// (the redis store) consume nonces in one round trip.
type KVStateStore struct {
	store  kv.Store
	prefix string
}

// NewStateStore wraps store. Use a shared store (redis) when the gateway
// runs more than one replica.
func NewStateStore(store kv.Store) *KVStateStore {
	return &KVStateStore{store: store, prefix: "oauth_state:"}
}

// NewMemoryStateStore keeps nonces in process memory.
func NewMemoryStateStore() *KVStateStore {
	return NewStateStore(kv.NewMemory())
}

func (s *KVStateStore) Put(ctx context.Context, nonce string, ttl time.Duration) error {
	return s.store.Set(ctx, s.prefix+nonce, []byte{1}, ttl)
}

func (s *KVStateStore) Take(ctx context.Context, nonce string) (bool, error) {
	key := s.prefix + nonce
	if t, ok := s.store.(taker); ok {
		_, found, err := t.Take(ctx, key)
		return found, err
	}
	_, found, err := s.store.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	return true, s.store.Delete(ctx, key)
}
