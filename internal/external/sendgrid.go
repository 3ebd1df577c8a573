package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"reminderd/internal/types"
)

const sendGridAPIBase = "https://api.sendgrid.com"

// SendGridClientConfig holds the configuration for creating a SendGridClient.
type SendGridClientConfig struct {
	APIKey      types.SecretString
	FromAddress string
	FromName    string
	// BaseURL overrides the API endpoint; tests point it at httptest.
	BaseURL string
	Logger  *slog.Logger
}

// SendGridClient implements EmailProvider against the SendGrid v3 Mail Send
// API. Calls go through BaseClient so delivery inherits circuit breaking and
// retry behavior.
type SendGridClient struct {
	base     *BaseClient
	apiKey   types.SecretString
	fromAddr string
	fromName string
	baseURL  string
	log      *slog.Logger
}

// NewSendGridClient creates a SendGridClient with the default retry policy.
func NewSendGridClient(httpClient *http.Client, cfg SendGridClientConfig) *SendGridClient {
	return NewSendGridClientWithBase(
		NewBaseClient(httpClient, "sendgrid", DefaultRetryPolicy()),
		cfg,
	)
}

// NewSendGridClientWithBase creates a SendGridClient around a caller-provided
// BaseClient. Tests use this to disable retries or inject a sleep function.
func NewSendGridClientWithBase(base *BaseClient, cfg SendGridClientConfig) *SendGridClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sendGridAPIBase
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &SendGridClient{
		base:     base,
		apiKey:   cfg.APIKey,
		fromAddr: cfg.FromAddress,
		fromName: cfg.FromName,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		log:      log,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridMailPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// Send transmits a rendered email via POST /v3/mail/send. SendGrid answers
// 202 Accepted on success; the returned ID is the X-Message-Id header.
//
// Error mapping: 403 means the recipient is suppressed (ErrCodeEmailBlocked);
// 429 and 5xx are retried by BaseClient and surface as upstream errors; any
// other non-202 maps to ErrCodeUpstreamEmailProvider.
func (s *SendGridClient) Send(ctx context.Context, input SendInput) (string, error) {
	payload := sendGridMailPayload{
		Personalizations: []sendGridPersonalization{
			{To: []sendGridAddress{{Email: input.ToAddress, Name: input.ToName}}},
		},
		From:    sendGridAddress{Email: s.fromAddr, Name: s.fromName},
		Subject: input.Subject,
		Content: []sendGridContent{{Type: "text/html", Value: input.BodyHTML}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "marshaling mail payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "building mail send request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey.Reveal())

	resp, err := s.base.Do(req)
	if err != nil {
		// BaseClient already mapped breaker/retry exhaustion to an AppError.
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			return "", appErr
		}
		return "", types.NewAppError(types.ErrCodeUpstreamEmailProvider, "mail send request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		return resp.Header.Get("X-Message-Id"), nil
	}
	return "", s.errorFromResponse(resp)
}

type sendGridErrorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func (s *SendGridClient) errorFromResponse(resp *http.Response) error {
	msg := ""
	if body, err := io.ReadAll(resp.Body); err == nil {
		var sgErr sendGridErrorBody
		if json.Unmarshal(body, &sgErr) == nil && len(sgErr.Errors) > 0 {
			msg = sgErr.Errors[0].Message
		} else {
			msg = string(body)
		}
	}

	if resp.StatusCode == http.StatusForbidden {
		return types.NewAppError(types.ErrCodeEmailBlocked,
			fmt.Sprintf("sendgrid blocked delivery: %s", msg), nil)
	}
	return types.NewAppError(types.ErrCodeUpstreamEmailProvider,
		fmt.Sprintf("sendgrid error (%d): %s", resp.StatusCode, msg), nil)
}

var _ EmailProvider = (*SendGridClient)(nil)
