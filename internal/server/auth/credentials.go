// Package auth implements password hashing, session token issuance and the
// identity and ownership checks shared by the resource services.
package auth

import (
	"fmt"

	"github.com/petitions/petitiond/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Credentials hashes and verifies passwords and issues opaque session tokens.
type Credentials struct {
	cost int
}

// NewCredentials returns a Credentials using the given bcrypt cost.
// A cost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewCredentials(cost int) *Credentials {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Credentials{cost: cost}
}

// Hash returns a salted bcrypt hash of password.
func (c *Credentials) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether password matches hash.
func (c *Credentials) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken returns a fresh 32-character hex session token.
func (c *Credentials) IssueToken() (string, error) {
	t, err := common.MakeRandHexString(common.SessionTokenBytes)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return t, nil
}
