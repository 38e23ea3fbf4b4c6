package repository

import (
	"context"
	"time"

	"github.com/opsboard/operator-auth/internal/domain/entity"
)

// OperatorRepository defines the data-access contract for operators and
// their tokens. Multi-statement operations (CreateInvited,
// CompleteInvite, CreateResetToken, ResetPassword) are transactional:
// either every statement applies or none does.
//
// Uniqueness of email and display name is enforced here, at write time,
// by storage constraints; callers must treat a conflict returned from a
// mutation as the authoritative "taken" signal regardless of any
// earlier read.
type OperatorRepository interface {
	GetByEmail(ctx context.Context, email string) (*entity.Operator, error)
	GetByID(ctx context.Context, id int64) (*entity.Operator, error)

	// NameTaken reports whether an initialized operator already owns
	// the display name. It never mutates state.
	NameTaken(ctx context.Context, name string) (bool, error)

	// Rename updates the display name. Returns a conflict error when
	// the name is already owned.
	Rename(ctx context.Context, id int64, name string) error

	// CreateInvited inserts a placeholder operator and its invite token
	// in one transaction and returns the new operator.
	CreateInvited(ctx context.Context, email, tokenValue string) (*entity.Operator, error)

	// FindInvite looks up an invite token joined with its operator.
	FindInvite(ctx context.Context, tokenValue string) (*entity.TokenOwner, error)

	// CompleteInvite sets the operator's name and password hash and
	// deletes the consumed token in one transaction.
	CompleteInvite(ctx context.Context, tokenID, operatorID int64, name, passwordHash string) error

	// CreateResetToken purges any token older than window and inserts a
	// fresh one, in one transaction. A surviving token inside the
	// window surfaces as autherr.ErrTooManyRequests.
	CreateResetToken(ctx context.Context, operatorID int64, tokenValue string, window time.Duration) error

	// FindResetToken looks up a reset token no older than maxAge joined
	// with its operator. Expired and unknown tokens are both not-found.
	FindResetToken(ctx context.Context, tokenValue string, maxAge time.Duration) (*entity.TokenOwner, error)

	// ResetPassword updates the operator's password hash and deletes
	// the consumed token in one transaction.
	ResetPassword(ctx context.Context, tokenID, operatorID int64, passwordHash string) error
}

// AuditRepository persists best-effort audit records.
type AuditRepository interface {
	Insert(ctx context.Context, rec *entity.AuditRecord) error
}
