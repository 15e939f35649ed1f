package authinfra

import (
	"github.com/Abraxas-365/academy/pkg/errx"
	"golang.org/x/crypto/bcrypt"
)

// BcryptPasswordService implements auth.PasswordService with bcrypt.
type BcryptPasswordService struct {
	cost int
}

// NewBcryptPasswordService creates a password service with the given cost
// factor. Costs outside bcrypt's valid range fall back to the default.
func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordService{cost: cost}
}

// Hash derives a salted, one-way credential from the plaintext.
func (s *BcryptPasswordService) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the credential. An empty
// credential verifies false so federation-only accounts can never pass a
// password login; bcrypt's comparison is constant-time on the hash.
func (s *BcryptPasswordService) Verify(plaintext, credential string) bool {
	if credential == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(credential), []byte(plaintext)) == nil
}
