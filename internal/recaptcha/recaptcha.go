// Package recaptcha verifies reCAPTCHA v3 tokens against Google's siteverify API.
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is Google's token verification endpoint.
const DefaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// DefaultTimeout bounds one verification call.
const DefaultTimeout = 8 * time.Second

// ExpectedAction is the action the careers site tags apply tokens with.
const ExpectedAction = "therapist_apply"

// ServiceError means the verification service could not be reached or
// returned something unreadable.
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// VerificationError means the token was checked and rejected.
type VerificationError struct {
	Message string
}

func (e *VerificationError) Error() string {
	return e.Message
}

// Result is the accepted verification response.
type Result struct {
	Success  bool    `json:"success"`
	Score    float64 `json:"score"`
	Action   string  `json:"action"`
	Hostname string  `json:"hostname"`
}

// Verifier checks tokens with a shared secret.
type Verifier struct {
	Secret   string
	MinScore float64
	Endpoint string
	Client   *http.Client
}

// NewVerifier creates a verifier for the production endpoint.
func NewVerifier(secret string, minScore float64) *Verifier {
	return &Verifier{
		Secret:   secret,
		MinScore: minScore,
		Endpoint: DefaultEndpoint,
		Client:   &http.Client{Timeout: DefaultTimeout},
	}
}

// Verify posts token to the verification endpoint and checks success, score
// and action. An empty expectedAction, or an empty action in the response,
// skips the action check.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP, expectedAction string) (*Result, error) {
	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ServiceError{Message: "recaptcha verification request failed", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client().Do(req)
	if err != nil {
		return nil, &ServiceError{Message: "recaptcha verification request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Message: "recaptcha verification request failed", Cause: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &ServiceError{Message: fmt.Sprintf("recaptcha verification returned HTTP %d", resp.StatusCode)}
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ServiceError{Message: "recaptcha verification response was not valid json", Cause: err}
	}

	if !result.Success {
		return nil, &VerificationError{Message: "recaptcha token rejected"}
	}
	if result.Score < v.MinScore {
		return nil, &VerificationError{Message: "recaptcha score below threshold"}
	}
	if expectedAction != "" && result.Action != "" && result.Action != expectedAction {
		return nil, &VerificationError{Message: "recaptcha action mismatch"}
	}
	return &result, nil
}

func (v *Verifier) endpoint() string {
	if v.Endpoint == "" {
		return DefaultEndpoint
	}
	return v.Endpoint
}

func (v *Verifier) client() *http.Client {
	if v.Client == nil {
		return &http.Client{Timeout: DefaultTimeout}
	}
	return v.Client
}
