package application

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/internal/domain/repository"
	"github.com/opsboard/operator-auth/pkg/validation"
)

// Service is the composition root of the auth use-cases. Each method
// maps to one endpoint; failures always come back as typed autherr
// values, never panics.
type Service struct {
	Verifier *CredentialVerifier
	Sessions *SessionAuthority
	Tokens   *TokenAuthority
	Repo     repository.OperatorRepository
	Logger   *logrus.Logger
}

func NewService(verifier *CredentialVerifier, sessions *SessionAuthority, tokens *TokenAuthority, repo repository.OperatorRepository, logger *logrus.Logger) *Service {
	return &Service{
		Verifier: verifier,
		Sessions: sessions,
		Tokens:   tokens,
		Repo:     repo,
		Logger:   logger,
	}
}

// Login verifies credentials and opens a session carrying the bearer claim.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Principal, error) {
	op, err := s.Verifier.Verify(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	return s.Sessions.Open(ctx, op)
}

// Logout destroys the session; calling it without one still succeeds.
func (s *Service) Logout(ctx context.Context, sid string) error {
	return s.Sessions.Destroy(ctx, sid)
}

func (s *Service) Forgot(ctx context.Context, email string) error {
	return s.Tokens.Forgot(ctx, email)
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	return s.Tokens.Reset(ctx, token, password)
}

func (s *Service) Invite(ctx context.Context, email string) error {
	return s.Tokens.Invite(ctx, email)
}

func (s *Service) Welcome(ctx context.Context, token string) (string, error) {
	return s.Tokens.Welcome(ctx, token)
}

func (s *Service) Initialize(ctx context.Context, token, name, password string) error {
	return s.Tokens.Initialize(ctx, token, name, password)
}

// Rename validates the candidate and updates the display name. The
// storage constraint is the authoritative uniqueness check; a conflict
// on update wins over any earlier probe.
func (s *Service) Rename(ctx context.Context, operatorID int64, name string) error {
	if ok, reasons := validation.ValidateOperatorName(name); !ok {
		return autherr.Validation("invalid operator name: " + strings.Join(reasons, ", "))
	}
	return s.Repo.Rename(ctx, operatorID, name)
}

// ProbeName reports whether a display name is still available. It
// never mutates state; the answer may be stale by the time a rename
// runs.
func (s *Service) ProbeName(ctx context.Context, name string) (bool, error) {
	taken, err := s.Repo.NameTaken(ctx, name)
	if err != nil {
		return false, err
	}
	return !taken, nil
}
