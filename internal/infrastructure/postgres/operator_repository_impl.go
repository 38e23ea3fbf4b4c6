package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/internal/domain/entity"
	"github.com/opsboard/operator-auth/internal/domain/repository"
)

// DB abstracts the pgx pool so tests can substitute a mock.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type OperatorRepository struct {
	db DB
}

func NewOperatorRepository(db DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

const operatorColumns = `id, email, display_name, password_hash, created_at, updated_at`

func scanOperator(row pgx.Row, o *entity.Operator) error {
	return row.Scan(&o.ID, &o.Email, &o.DisplayName, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
}

// conflictError maps a unique violation to the typed conflict it
// signifies, keyed by the violated constraint.
func conflictError(pgErr *pgconn.PgError) error {
	switch pgErr.ConstraintName {
	case "operators_email_key":
		return autherr.Conflict("an operator with this email already exists")
	case "operators_display_name_key":
		return autherr.Conflict("operator name already taken")
	case "tokens_operator_id_key":
		return autherr.ErrTooManyRequests
	default:
		return autherr.Conflict("conflicting record already exists")
	}
}

func mapError(err error, notFoundMsg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return autherr.NotFound(notFoundMsg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return conflictError(pgErr)
	}
	return autherr.Upstream("database error", err)
}

// inTx runs fn inside a transaction, committing on success and rolling
// back on any failure path, including panics.
func (r *OperatorRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return autherr.Upstream("could not begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return autherr.Upstream("could not commit transaction", err)
	}
	return nil
}

func (r *OperatorRepository) GetByEmail(ctx context.Context, email string) (*entity.Operator, error) {
	o := &entity.Operator{}
	row := r.db.QueryRow(ctx, `
		SELECT `+operatorColumns+`
		FROM operators
		WHERE lower(email) = lower($1)
	`, email)
	if err := scanOperator(row, o); err != nil {
		return nil, mapError(err, "operator not found")
	}
	return o, nil
}

func (r *OperatorRepository) GetByID(ctx context.Context, id int64) (*entity.Operator, error) {
	o := &entity.Operator{}
	row := r.db.QueryRow(ctx, `
		SELECT `+operatorColumns+`
		FROM operators
		WHERE id = $1
	`, id)
	if err := scanOperator(row, o); err != nil {
		return nil, mapError(err, "operator not found")
	}
	return o, nil
}

// NameTaken only considers initialized operators: invited placeholders
// all share the placeholder name and never own it.
func (r *OperatorRepository) NameTaken(ctx context.Context, name string) (bool, error) {
	var taken bool
	row := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM operators
			WHERE display_name = $1 AND password_hash IS NOT NULL
		)
	`, name)
	if err := row.Scan(&taken); err != nil {
		return false, autherr.Upstream("database error", err)
	}
	return taken, nil
}

func (r *OperatorRepository) Rename(ctx context.Context, id int64, name string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE operators
		SET display_name = $1, updated_at = now()
		WHERE id = $2
	`, name, id)
	if err != nil {
		return mapError(err, "operator not found")
	}
	if res.RowsAffected() == 0 {
		return autherr.NotFound("operator not found")
	}
	return nil
}

func (r *OperatorRepository) CreateInvited(ctx context.Context, email, tokenValue string) (*entity.Operator, error) {
	o := &entity.Operator{}
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO operators (email, display_name)
			VALUES ($1, $2)
			RETURNING `+operatorColumns+`
		`, email, entity.PlaceholderName)
		if err := scanOperator(row, o); err != nil {
			return mapError(err, "operator not found")
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO tokens (operator_id, value)
			VALUES ($1, $2)
		`, o.ID, tokenValue); err != nil {
			return mapError(err, "operator not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

const tokenOwnerQuery = `
	SELECT t.id, t.operator_id, t.value, t.created_at,
	       o.id, o.email, o.display_name, o.password_hash, o.created_at, o.updated_at
	FROM tokens t
	JOIN operators o ON o.id = t.operator_id
`

func scanTokenOwner(row pgx.Row) (*entity.TokenOwner, error) {
	to := &entity.TokenOwner{}
	err := row.Scan(
		&to.Token.ID, &to.Token.OperatorID, &to.Token.Value, &to.Token.CreatedAt,
		&to.Operator.ID, &to.Operator.Email, &to.Operator.DisplayName,
		&to.Operator.PasswordHash, &to.Operator.CreatedAt, &to.Operator.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return to, nil
}

func (r *OperatorRepository) FindInvite(ctx context.Context, tokenValue string) (*entity.TokenOwner, error) {
	row := r.db.QueryRow(ctx, tokenOwnerQuery+`WHERE t.value = $1`, tokenValue)
	to, err := scanTokenOwner(row)
	if err != nil {
		return nil, mapError(err, "no invitation for this token")
	}
	return to, nil
}

func (r *OperatorRepository) CompleteInvite(ctx context.Context, tokenID, operatorID int64, name, passwordHash string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			UPDATE operators
			SET display_name = $1, password_hash = $2, updated_at = now()
			WHERE id = $3
		`, name, passwordHash, operatorID)
		if err != nil {
			return mapError(err, "no invitation for this token")
		}
		if res.RowsAffected() == 0 {
			return autherr.NotFound("no invitation for this token")
		}
		res, err = tx.Exec(ctx, `DELETE FROM tokens WHERE id = $1`, tokenID)
		if err != nil {
			return mapError(err, "no invitation for this token")
		}
		if res.RowsAffected() == 0 {
			// consumed by a concurrent initialization
			return autherr.NotFound("no invitation for this token")
		}
		return nil
	})
}

// CreateResetToken purges a stale token before inserting so the unique
// index on operator_id only blocks tokens still inside the window. Of N
// concurrent requests exactly one insert wins; the rest observe the
// unique violation and surface ErrTooManyRequests.
func (r *OperatorRepository) CreateResetToken(ctx context.Context, operatorID int64, tokenValue string, window time.Duration) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM tokens
			WHERE operator_id = $1 AND created_at < now() - $2::interval
		`, operatorID, window); err != nil {
			return mapError(err, "operator not found")
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO tokens (operator_id, value)
			VALUES ($1, $2)
		`, operatorID, tokenValue); err != nil {
			return mapError(err, "operator not found")
		}
		return nil
	})
}

// FindResetToken treats an expired token exactly like a missing one.
// The boundary is inclusive: a token aged exactly maxAge still matches.
func (r *OperatorRepository) FindResetToken(ctx context.Context, tokenValue string, maxAge time.Duration) (*entity.TokenOwner, error) {
	row := r.db.QueryRow(ctx,
		tokenOwnerQuery+`WHERE t.value = $1 AND t.created_at >= now() - $2::interval`,
		tokenValue, maxAge)
	to, err := scanTokenOwner(row)
	if err != nil {
		return nil, mapError(err, "invalid or timed out token")
	}
	return to, nil
}

func (r *OperatorRepository) ResetPassword(ctx context.Context, tokenID, operatorID int64, passwordHash string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			UPDATE operators
			SET password_hash = $1, updated_at = now()
			WHERE id = $2
		`, passwordHash, operatorID)
		if err != nil {
			return mapError(err, "invalid or timed out token")
		}
		if res.RowsAffected() == 0 {
			return autherr.NotFound("invalid or timed out token")
		}
		res, err = tx.Exec(ctx, `DELETE FROM tokens WHERE id = $1`, tokenID)
		if err != nil {
			return mapError(err, "invalid or timed out token")
		}
		if res.RowsAffected() == 0 {
			return autherr.NotFound("invalid or timed out token")
		}
		return nil
	})
}

var _ repository.OperatorRepository = (*OperatorRepository)(nil)
