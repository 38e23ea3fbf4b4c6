package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager signs and validates the bearer claims attached to
// sessions, and the short-lived service claims sent to the mail relay.
type JWTManager struct {
	Secret   []byte
	ClaimTTL time.Duration
}

func NewJWTManager(secret string, claimTTL time.Duration) *JWTManager {
	return &JWTManager{Secret: []byte(secret), ClaimTTL: claimTTL}
}

// Claims is the bearer claim carried in the session payload. Downstream
// services verify it with the shared secret.
type Claims struct {
	OperatorID int64 `json:"oid"`
	jwt.RegisteredClaims
}

// GenerateClaim signs a time-bound bearer claim for the operator.
func (m *JWTManager) GenerateClaim(operatorID int64) (string, time.Time, error) {
	exp := time.Now().Add(m.ClaimTTL)
	claims := &Claims{
		OperatorID: operatorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// GenerateServiceClaim signs a claim authorizing a call to a
// collaborating service, e.g. the mail relay.
func (m *JWTManager) GenerateServiceClaim(subject string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.Secret)
}

// ParseClaim validates a bearer claim and returns its contents.
func (m *JWTManager) ParseClaim(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid claim")
	}
	return claims, nil
}
