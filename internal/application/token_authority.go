package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/internal/domain/repository"
	"github.com/opsboard/operator-auth/pkg/helpers"
	"github.com/opsboard/operator-auth/pkg/mailer"
	"github.com/opsboard/operator-auth/pkg/validation"
)

// MailPublisher enqueues best-effort mail jobs. Satisfied by
// helpers.RabbitPublisher.
type MailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// TokenAuthority drives the invite and reset flows: token issuance,
// redemption, expiry, and the operator state transitions they cause.
type TokenAuthority struct {
	Repo        repository.OperatorRepository
	Gateway     mailer.Gateway // synchronous sends; forgot propagates its failures
	Queue       MailPublisher  // post-commit best-effort sends; invite uses this
	Logger      *logrus.Logger
	InviteURL   string
	ResetURL    string
	ResetWindow time.Duration
}

// newTokenValue returns 160 bits of cryptographic randomness as hex.
// Collisions are left to the database's uniqueness constraint.
func newTokenValue() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Invite creates a placeholder operator and its invite token in one
// transaction, then queues the invitation mail. Delivery is best-effort:
// the committed invite stands even if the queue is down.
func (t *TokenAuthority) Invite(ctx context.Context, email string) error {
	if ok, reasons := validation.ValidateEmail(email); !ok {
		return autherr.Validation("invalid email: " + strings.Join(reasons, ", "))
	}

	if _, err := t.Repo.GetByEmail(ctx, email); err == nil {
		return autherr.Conflict("an operator with this email already exists")
	} else if autherr.KindOf(err) != autherr.KindNotFound {
		return err
	}

	value, err := newTokenValue()
	if err != nil {
		return autherr.Upstream("could not generate token", err)
	}
	op, err := t.Repo.CreateInvited(ctx, email, value)
	if err != nil {
		return err
	}

	link := t.InviteURL + "?token=" + value
	if t.Queue != nil {
		job := mailer.EmailJob{
			To:      email,
			Subject: "You have been invited",
			Text:    "You have been invited as an operator. Complete your registration: " + link,
		}
		if err := t.Queue.PublishJSON(ctx, job); err != nil && t.Logger != nil {
			t.Logger.WithError(err).WithField("operator_id", op.ID).Warn("invite mail enqueue failed")
		}
	}
	return nil
}

// Welcome resolves an invite token to the invited operator's email so
// the client can resume the registration form.
func (t *TokenAuthority) Welcome(ctx context.Context, tokenValue string) (string, error) {
	to, err := t.Repo.FindInvite(ctx, tokenValue)
	if err != nil {
		return "", err
	}
	return to.Operator.Email, nil
}

// Initialize completes an invite: checks run in the order name
// availability, password shape, token validity, each short-circuiting,
// then the operator update and token deletion commit together.
func (t *TokenAuthority) Initialize(ctx context.Context, tokenValue, displayName, password string) error {
	if ok, reasons := validation.ValidateOperatorName(displayName); !ok {
		return autherr.Validation("invalid operator name: " + strings.Join(reasons, ", "))
	}
	taken, err := t.Repo.NameTaken(ctx, displayName)
	if err != nil {
		return err
	}
	if taken {
		return autherr.Conflict("operator name already taken")
	}

	if ok, reasons := validation.ValidatePassword(password); !ok {
		return autherr.Validation("invalid password: " + strings.Join(reasons, ", "))
	}

	to, err := t.Repo.FindInvite(ctx, tokenValue)
	if err != nil {
		if autherr.KindOf(err) == autherr.KindNotFound {
			return autherr.NotFound("invalid invitation")
		}
		return err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return autherr.Upstream("could not hash password", err)
	}
	return t.Repo.CompleteInvite(ctx, to.Token.ID, to.Operator.ID, displayName, hash)
}

// Forgot issues a reset token and sends the reset link. An unknown or
// not-yet-initialized email reports success without side effects, so
// the endpoint does not leak account existence and cannot disturb a
// pending invitation. Unlike invite, the mail outcome is the
// user-visible result here, so transport failures propagate.
func (t *TokenAuthority) Forgot(ctx context.Context, email string) error {
	if ok, reasons := validation.ValidateEmail(email); !ok {
		return autherr.Validation("invalid email: " + strings.Join(reasons, ", "))
	}

	op, err := t.Repo.GetByEmail(ctx, email)
	if err != nil {
		if autherr.KindOf(err) == autherr.KindNotFound {
			if t.Logger != nil {
				t.Logger.WithField("email", email).Debug("reset requested for unknown email")
			}
			return nil
		}
		return err
	}

	// An invited operator has no password to reset; touching the token
	// table here would consume its invitation.
	if !op.Initialized() {
		if t.Logger != nil {
			t.Logger.WithField("operator_id", op.ID).Debug("reset requested for uninitialized operator")
		}
		return nil
	}

	value, err := newTokenValue()
	if err != nil {
		return autherr.Upstream("could not generate token", err)
	}
	if err := t.Repo.CreateResetToken(ctx, op.ID, value, t.ResetWindow); err != nil {
		return err
	}

	link := t.ResetURL + "?token=" + value
	return t.Gateway.Send(ctx, op.Email, "Password reset",
		"A password reset was requested for your account. The link is valid for one hour: "+link)
}

// Reset redeems a reset token. Expired and unknown tokens produce the
// same error; the window boundary is inclusive.
func (t *TokenAuthority) Reset(ctx context.Context, tokenValue, password string) error {
	if ok, reasons := validation.ValidatePassword(password); !ok {
		return autherr.Validation("invalid password: " + strings.Join(reasons, ", "))
	}

	to, err := t.Repo.FindResetToken(ctx, tokenValue, t.ResetWindow)
	if err != nil {
		return err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return autherr.Upstream("could not hash password", err)
	}
	return t.Repo.ResetPassword(ctx, to.Token.ID, to.Operator.ID, hash)
}

var _ MailPublisher = (*helpers.RabbitPublisher)(nil)
