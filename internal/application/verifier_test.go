package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
)

func TestVerifySucceedsWithCorrectPassword(t *testing.T) {
	repo := newFakeRepo()
	op := seedActiveOperator(t, repo, "op@example.com", "Night Shift", "Abcdef1!")
	v := NewCredentialVerifier(repo, nil)

	got, err := v.Verify(context.Background(), "op@example.com", "Abcdef1!")
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	assert.Equal(t, "op@example.com", got.Email)
}

func TestVerifyEmailIsCaseInsensitive(t *testing.T) {
	repo := newFakeRepo()
	seedActiveOperator(t, repo, "op@example.com", "Night Shift", "Abcdef1!")
	v := NewCredentialVerifier(repo, nil)

	_, err := v.Verify(context.Background(), "OP@Example.COM", "Abcdef1!")
	assert.NoError(t, err)
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	repo := newFakeRepo()
	seedActiveOperator(t, repo, "op@example.com", "Night Shift", "Abcdef1!")
	v := NewCredentialVerifier(repo, nil)

	_, err := v.Verify(context.Background(), "op@example.com", "WrongPass1!")
	assert.Equal(t, autherr.KindAuthentication, autherr.KindOf(err))
}

func TestVerifyRejectsUnknownEmail(t *testing.T) {
	repo := newFakeRepo()
	v := NewCredentialVerifier(repo, nil)

	_, err := v.Verify(context.Background(), "ghost@example.com", "Abcdef1!")
	assert.Equal(t, autherr.KindAuthentication, autherr.KindOf(err))
	assert.Equal(t, "invalid credentials", autherr.Message(err))
}

func TestVerifyRejectsUninitializedOperator(t *testing.T) {
	repo := newFakeRepo()
	repo.addOperator("pending@example.com", "New Operator", nil)
	v := NewCredentialVerifier(repo, nil)

	// No stored hash can ever match, not even the empty password.
	for _, password := range []string{"", "Abcdef1!", "New Operator"} {
		_, err := v.Verify(context.Background(), "pending@example.com", password)
		assert.Equal(t, autherr.KindAuthentication, autherr.KindOf(err))
	}
}
