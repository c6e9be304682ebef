package auth

import (
	"errors"

	"github.com/clinic/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails. The message
// is the same for an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// CredentialVerifier checks a username/password pair against the configured
// cashier credential set. Real user accounts live in the ledger backend;
// this only guards the client's own HTTP surface.
type CredentialVerifier struct {
	username     string
	passwordHash []byte
	role         string
	userID       uuid.UUID
}

// NewCredentialVerifier creates a verifier from the auth configuration
func NewCredentialVerifier(cfg config.AuthConfig) *CredentialVerifier {
	return &CredentialVerifier{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
		role:         cfg.Role,
		// Deterministic per username so the ID survives restarts
		userID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(cfg.Username)),
	}
}

// Verify checks the credentials and returns token input on success
func (v *CredentialVerifier) Verify(username, password string) (*GenerateTokenInput, error) {
	if username != v.username || len(v.passwordHash) == 0 {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &GenerateTokenInput{
		UserID:   v.userID,
		Username: v.username,
		Role:     v.role,
	}, nil
}

// HashPassword produces a bcrypt hash suitable for auth.password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
