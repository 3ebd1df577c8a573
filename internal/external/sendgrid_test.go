package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reminderd/internal/types"
)

func newSendGridTestClient(t *testing.T, handler http.HandlerFunc) *SendGridClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := NewBaseClient(
		srv.Client(),
		"sendgrid-test",
		RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond},
		WithSleepFunc(noSleep),
	)
	return NewSendGridClientWithBase(base, SendGridClientConfig{
		APIKey:      types.SecretString("SG.test-key"),
		FromAddress: "no-reply@reminderd.test",
		FromName:    "Reminderd",
		BaseURL:     srv.URL,
	})
}

func sampleInput() SendInput {
	return SendInput{
		ToAddress: "ana@example.com",
		ToName:    "Ana",
		Subject:   "Lembrete - pagar aluguel",
		BodyHTML:  "<p>pagar aluguel</p>",
	}
}

func TestSendGridClient_Send_Success(t *testing.T) {
	var captured sendGridMailPayload
	client := newSendGridTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer SG.test-key" {
			t.Errorf("auth header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	})

	msgID, err := client.Send(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msgID != "msg-123" {
		t.Errorf("message id = %q", msgID)
	}

	if captured.Subject != "Lembrete - pagar aluguel" {
		t.Errorf("subject = %q", captured.Subject)
	}
	if captured.From.Email != "no-reply@reminderd.test" {
		t.Errorf("from = %q", captured.From.Email)
	}
	if len(captured.Personalizations) != 1 || captured.Personalizations[0].To[0].Email != "ana@example.com" {
		t.Errorf("personalizations = %+v", captured.Personalizations)
	}
	if len(captured.Content) != 1 || captured.Content[0].Type != "text/html" {
		t.Errorf("content = %+v", captured.Content)
	}
}

func TestSendGridClient_Send_ForbiddenMapsToBlocked(t *testing.T) {
	client := newSendGridTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"message":"recipient suppressed"}]}`))
	})

	_, err := client.Send(context.Background(), sampleInput())
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeEmailBlocked {
		t.Fatalf("err = %v, want %s", err, types.ErrCodeEmailBlocked)
	}
}

func TestSendGridClient_Send_BadRequestMapsToProviderError(t *testing.T) {
	client := newSendGridTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid from address","field":"from.email"}]}`))
	})

	_, err := client.Send(context.Background(), sampleInput())
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamEmailProvider {
		t.Fatalf("err = %v, want %s", err, types.ErrCodeUpstreamEmailProvider)
	}
}

func TestSendGridClient_Send_ServerErrorSurfacesUpstream(t *testing.T) {
	client := newSendGridTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Send(context.Background(), sampleInput())
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamUnavailable {
		t.Fatalf("err = %v, want %s", err, types.ErrCodeUpstreamUnavailable)
	}
}
