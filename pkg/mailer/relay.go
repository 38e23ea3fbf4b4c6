package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/pkg/helpers"
)

// Relay sends mail through the mail service over HTTP, authorized by a
// short-lived signed claim.
type Relay struct {
	URL    string
	JWT    *helpers.JWTManager
	Client *http.Client
}

const relayClaimTTL = 5 * time.Minute

func NewRelay(url string, jwt *helpers.JWTManager) *Relay {
	return &Relay{
		URL:    url,
		JWT:    jwt,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type relayRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (r *Relay) Send(ctx context.Context, recipient, subject, text string) error {
	claim, err := r.JWT.GenerateServiceClaim("mailer", relayClaimTTL)
	if err != nil {
		return autherr.Upstream("could not authorize mail request", err)
	}

	body, err := json.Marshal(relayRequest{Recipient: recipient, Subject: subject, Text: text})
	if err != nil {
		return autherr.Upstream("could not encode mail request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return autherr.Upstream("could not build mail request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+claim)

	resp, err := r.Client.Do(req)
	if err != nil {
		return autherr.Upstream("mail service unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return autherr.Upstream("mail service returned an unreadable response", err)
	}
	if resp.StatusCode >= 300 || !parsed.Success {
		msg := parsed.Message
		if msg == "" {
			msg = "mail service rejected the request"
		}
		return autherr.Upstream(msg, nil)
	}
	return nil
}

var _ Gateway = (*Relay)(nil)
