// Package eviction is the trusted entry point for removing an identity from
// the session. Callers must present the shared admin secret.
package eviction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/session"
)

// Evictor performs the eviction against session state
type Evictor interface {
	ForceEvict(ctx context.Context, key model.IdentityKey) (session.EvictOutcome, error)
}

// Verifier checks the admin secret
type Verifier interface {
	Verify(presented string) error
}

// Request is an eviction request as received from any admin surface
type Request struct {
	Secret   string `json:"secret"`
	Identity string `json:"identity" validate:"required,max=254"`
}

// Result is reported back to the admin caller
type Result struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Evicted      bool               `json:"evicted"`
	ConnectionID model.ConnectionID `json:"connection_id,omitempty"`
}

// Service checks authorization and request shape before evicting
type Service struct {
	evictor  Evictor
	verifier Verifier
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates an eviction Service
func New(evictor Evictor, verifier Verifier, logger *slog.Logger) *Service {
	return &Service{
		evictor:  evictor,
		verifier: verifier,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "eviction")),
	}
}

// Evict verifies the secret first, then the identity, then evicts.
// An identity with no live connection is a successful no-op.
func (s *Service) Evict(ctx context.Context, req Request) (Result, error) {
	if err := s.verifier.Verify(req.Secret); err != nil {
		s.logger.Warn("eviction denied", slog.String("error", err.Error()))
		return Result{}, err
	}

	req.Identity = strings.TrimSpace(req.Identity)
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Result{}, fmt.Errorf("%w: %s", model.ErrIdentityRequired, verrs[0].Tag())
		}
		return Result{}, fmt.Errorf("%w: %v", model.ErrIdentityRequired, err)
	}

	key := session.NormalizeIdentity(req.Identity)
	outcome, err := s.evictor.ForceEvict(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("evict %s: %w", key, err)
	}

	if !outcome.Evicted {
		return Result{Success: true, Message: "Identity is not connected."}, nil
	}
	s.logger.Info("identity evicted by admin",
		slog.String("identity", string(key)),
		slog.String("connection_id", string(outcome.ConnectionID)))
	return Result{
		Success:      true,
		Message:      "Connection evicted.",
		Evicted:      true,
		ConnectionID: outcome.ConnectionID,
	}, nil
}

// Error codes reported to admin callers that cannot read HTTP status codes
const (
	CodeUnauthorized  = "UNAUTHORIZED_ADMIN"
	CodeNotConfigured = "ADMIN_NOT_CONFIGURED"
	CodeInvalid       = "INVALID_REQUEST"
	CodeInternal      = "INTERNAL_ERROR"
)

// Code maps an Evict error to its stable error code
func Code(err error) string {
	switch {
	case errors.Is(err, model.ErrAdminUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, model.ErrAdminNotConfigured):
		return CodeNotConfigured
	case errors.Is(err, model.ErrIdentityRequired), errors.Is(err, model.ErrMalformedMessage):
		return CodeInvalid
	default:
		return CodeInternal
	}
}
