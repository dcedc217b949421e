package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/liveclass/internal/model"
)

// Config holds the shared admin secret. When both are set the bcrypt hash wins.
type Config struct {
	Secret       string
	SecretBcrypt string
}

// Service verifies the shared secret presented by admin callers
type Service struct {
	secret []byte
	hash   []byte
}

// New creates a Service. A malformed bcrypt hash is a configuration error.
func New(cfg Config) (*Service, error) {
	s := &Service{}
	if hash := strings.TrimSpace(cfg.SecretBcrypt); hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid admin secret hash: %w", err)
		}
		s.hash = []byte(hash)
		return s, nil
	}
	if cfg.Secret != "" {
		s.secret = []byte(cfg.Secret)
	}
	return s, nil
}

// Configured reports whether any admin secret is set
func (s *Service) Configured() bool {
	return len(s.hash) > 0 || len(s.secret) > 0
}

// Verify checks presented against the configured secret
func (s *Service) Verify(presented string) error {
	if !s.Configured() {
		return model.ErrAdminNotConfigured
	}
	if presented == "" {
		return model.ErrAdminUnauthorized
	}
	if len(s.hash) > 0 {
		if err := bcrypt.CompareHashAndPassword(s.hash, []byte(presented)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return model.ErrAdminUnauthorized
			}
			return fmt.Errorf("%w: %v", model.ErrAdminUnauthorized, err)
		}
		return nil
	}
	if subtle.ConstantTimeCompare(s.secret, []byte(presented)) != 1 {
		return model.ErrAdminUnauthorized
	}
	return nil
}
