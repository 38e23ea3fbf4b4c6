package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/pkg/helpers"
)

func TestRelaySendDeliversSignedRequest(t *testing.T) {
	jwt := helpers.NewJWTManager("shared-secret", time.Hour)

	var got relayRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(relayResponse{Success: true, Message: "sent"})
	}))
	defer srv.Close()

	relay := NewRelay(srv.URL, jwt)
	err := relay.Send(context.Background(), "op@example.com", "Password reset", "the link")
	require.NoError(t, err)

	assert.Equal(t, "op@example.com", got.Recipient)
	assert.Equal(t, "Password reset", got.Subject)
	assert.Equal(t, "the link", got.Text)

	// The claim is verifiable with the shared secret.
	require.True(t, strings.HasPrefix(auth, "Bearer "))
	claims, err := jwt.ParseClaim(strings.TrimPrefix(auth, "Bearer "))
	require.NoError(t, err)
	assert.Equal(t, "mailer", claims.Subject)
}

func TestRelaySendPropagatesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(relayResponse{Success: false, Message: "smtp down"})
	}))
	defer srv.Close()

	relay := NewRelay(srv.URL, helpers.NewJWTManager("shared-secret", time.Hour))
	err := relay.Send(context.Background(), "op@example.com", "subject", "text")
	assert.Equal(t, autherr.KindUpstream, autherr.KindOf(err))
	assert.Equal(t, "smtp down", autherr.Message(err))
}

func TestRelaySendRejectsUnreadableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	relay := NewRelay(srv.URL, helpers.NewJWTManager("shared-secret", time.Hour))
	err := relay.Send(context.Background(), "op@example.com", "subject", "text")
	assert.Equal(t, autherr.KindUpstream, autherr.KindOf(err))
}

func TestRelaySendUnreachableService(t *testing.T) {
	relay := NewRelay("http://127.0.0.1:1", helpers.NewJWTManager("shared-secret", time.Hour))
	err := relay.Send(context.Background(), "op@example.com", "subject", "text")
	assert.Equal(t, autherr.KindUpstream, autherr.KindOf(err))
}
