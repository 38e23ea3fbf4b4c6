package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/internal/domain/entity"
	"github.com/opsboard/operator-auth/pkg/helpers"
)

// Principal is the session payload stored at login. It is returned
// verbatim on load; no lookup or enrichment happens on deserialize.
type Principal struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"operator"`
	Claim       string    `json:"claim"`
	ClaimExpiry time.Time `json:"claim_expiry"`
	LoggedInAt  time.Time `json:"logged_in_at"`
}

// SessionAuthority turns a verified operator into server-side session
// state plus a signed bearer claim for downstream calls.
type SessionAuthority struct {
	Redis *redis.Client
	JWT   *helpers.JWTManager
	TTL   time.Duration
}

func NewSessionAuthority(rdb *redis.Client, jwt *helpers.JWTManager, ttl time.Duration) *SessionAuthority {
	return &SessionAuthority{Redis: rdb, JWT: jwt, TTL: ttl}
}

func sessionKey(sid string) string { return "session:" + sid }

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Open creates a session for the operator and attaches a freshly signed
// bearer claim to the payload. The hash never enters the session.
func (s *SessionAuthority) Open(ctx context.Context, op *entity.Operator) (string, *Principal, error) {
	claim, exp, err := s.JWT.GenerateClaim(op.ID)
	if err != nil {
		return "", nil, autherr.Upstream("could not sign bearer claim", err)
	}
	sid, err := newSessionID()
	if err != nil {
		return "", nil, autherr.Upstream("could not generate session id", err)
	}
	p := &Principal{
		ID:          op.ID,
		Email:       op.Email,
		DisplayName: op.DisplayName,
		Claim:       claim,
		ClaimExpiry: exp,
		LoggedInAt:  time.Now().UTC(),
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, sessionKey(sid), p, s.TTL); err != nil {
		return "", nil, autherr.Upstream("could not store session", err)
	}
	return sid, p, nil
}

// Load returns the principal exactly as stored at login.
func (s *SessionAuthority) Load(ctx context.Context, sid string) (*Principal, error) {
	var p Principal
	found, err := helpers.RedisGetJSON(ctx, s.Redis, sessionKey(sid), &p)
	if err != nil {
		return nil, autherr.Upstream("could not load session", err)
	}
	if !found {
		return nil, autherr.NotFound("session not found")
	}
	return &p, nil
}

// Destroy removes the session. Destroying an absent session is not an
// error, so logout stays idempotent.
func (s *SessionAuthority) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := helpers.RedisDel(ctx, s.Redis, sessionKey(sid)); err != nil {
		return autherr.Upstream("could not destroy session", err)
	}
	return nil
}
