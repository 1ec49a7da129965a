// Package auth guards access to the activity store behind a single shared secret.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tempo/internal/core"
	"tempo/internal/records"
)

var (
	ErrSecretNotSet     = errors.New("access secret not set")
	ErrSecretAlreadySet = errors.New("access secret already set")
	ErrEmptySecret      = fmt.Errorf("%w: empty secret", core.ErrValidation)
	ErrWrongSecret      = fmt.Errorf("%w: wrong secret", core.ErrValidation)
)

// Verifier hashes and checks the access secret. Plaintext never leaves this package.
type Verifier struct {
	store records.SecretStore
	cost  int
}

type Option func(*Verifier)

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(v *Verifier) { v.cost = cost }
}

func NewVerifier(store records.SecretStore, opts ...Option) *Verifier {
	v := &Verifier{store: store, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsSet reports whether a secret has been configured.
func (v *Verifier) IsSet(ctx context.Context) (bool, error) {
	_, found, err := v.store.LoadSecretHash(ctx)
	return found, err
}

// SetSecret stores the first secret. It refuses to overwrite an existing one.
func (v *Verifier) SetSecret(ctx context.Context, secret string) error {
	found, err := v.IsSet(ctx)
	if err != nil {
		return err
	}
	if found {
		return ErrSecretAlreadySet
	}
	return v.save(ctx, secret)
}

// ChangeSecret replaces the secret after checking the old one.
func (v *Verifier) ChangeSecret(ctx context.Context, oldSecret, newSecret string) error {
	ok, err := v.VerifySecret(ctx, oldSecret)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongSecret
	}
	return v.save(ctx, newSecret)
}

// VerifySecret compares candidate with the stored hash. It returns ErrSecretNotSet
// before the first SetSecret. Legacy SHA-256 hex digests are still accepted.
func (v *Verifier) VerifySecret(ctx context.Context, candidate string) (bool, error) {
	hash, found, err := v.store.LoadSecretHash(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrSecretNotSet
	}

	if isLegacyDigest(hash) {
		sum := sha256.Sum256([]byte(candidate))
		ok := subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(hash))) == 1
		if ok {
			slog.WarnContext(ctx, "Access secret uses a legacy digest; change it to upgrade")
		}
		return ok, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare secret: %w", err)
	}
}

func (v *Verifier) save(ctx context.Context, secret string) error {
	if secret == "" {
		return ErrEmptySecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	return v.store.SaveSecretHash(ctx, string(hash))
}

func isLegacyDigest(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
