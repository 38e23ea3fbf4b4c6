package application

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/internal/domain/entity"
	"github.com/opsboard/operator-auth/internal/domain/repository"
	"github.com/opsboard/operator-auth/pkg/helpers"
)

// dummyHash is compared against when no operator (or no stored hash)
// exists, so the unknown-email path still pays one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("operator-auth.dummy"), bcrypt.DefaultCost)

// CredentialVerifier checks an email/password pair against the stored
// hash. Not-found and mismatch are indistinguishable to the caller.
type CredentialVerifier struct {
	Repo   repository.OperatorRepository
	Logger *logrus.Logger
}

func NewCredentialVerifier(repo repository.OperatorRepository, logger *logrus.Logger) *CredentialVerifier {
	return &CredentialVerifier{Repo: repo, Logger: logger}
}

func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*entity.Operator, error) {
	op, err := v.Repo.GetByEmail(ctx, email)
	if err != nil {
		if autherr.KindOf(err) != autherr.KindNotFound {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, autherr.Authentication("invalid credentials")
	}

	// An invited operator without credentials can never authenticate.
	if op.PasswordHash == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, autherr.Authentication("invalid credentials")
	}

	if !helpers.CompareHashAndPassword(*op.PasswordHash, password) {
		if v.Logger != nil {
			v.Logger.WithField("operator_id", op.ID).Debug("password mismatch")
		}
		return nil, autherr.Authentication("invalid credentials")
	}
	return op, nil
}
