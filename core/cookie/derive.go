package cookie

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveSecrets expands each master secret into a purpose-bound secret with
// HKDF-SHA256, so one COOKIE_SECRETS value can key several cookie managers
// without them accepting each other's signatures. Order is preserved for
// key rotation.
func DeriveSecrets(masters []string, purpose string) ([]string, error) {
	out := make([]string, 0, len(masters))
	for i, m := range masters {
		if len(m) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(m), minSecretLength)
		}
		key := make([]byte, 32)
		if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(m), nil, []byte(purpose)), key); err != nil {
			return nil, fmt.Errorf("derive cookie secret: %w", err)
		}
		out = append(out, hex.EncodeToString(key))
	}
	return out, nil
}
