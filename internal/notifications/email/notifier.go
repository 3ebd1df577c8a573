package email

import (
	"context"
	"log/slog"
	"time"

	"reminderd/internal/external"
	"reminderd/internal/scheduler"
	"reminderd/internal/types"
)

// Notifier delivers reminder emails through an EmailProvider. It is the
// single scheduler.Notifier implementation in production; live triggers and
// retry sweeps both route through it.
type Notifier struct {
	provider external.EmailProvider
	renderer *Renderer
	timeout  time.Duration
	log      *slog.Logger
}

// NotifierConfig holds the dependencies for creating a Notifier.
type NotifierConfig struct {
	Provider external.EmailProvider
	Renderer *Renderer
	// SendTimeout bounds a single provider call; defaults to 10s.
	SendTimeout time.Duration
	Logger      *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(cfg NotifierConfig) *Notifier {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		provider: cfg.Provider,
		renderer: cfg.Renderer,
		timeout:  timeout,
		log:      log,
	}
}

// Send renders the reminder email from vars and transmits it.
func (n *Notifier) Send(ctx context.Context, vars map[string]string) error {
	rendered, err := n.renderer.Render(vars)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "rendering reminder email", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	msgID, err := n.provider.Send(ctx, external.SendInput{
		ToAddress: vars[scheduler.VarEmail],
		ToName:    vars[scheduler.VarName],
		Subject:   rendered.Subject,
		BodyHTML:  rendered.BodyHTML,
	})
	if err != nil {
		return err
	}

	n.log.Debug("reminder email accepted by provider",
		"email", vars[scheduler.VarEmail],
		"message_id", msgID,
	)
	return nil
}

var _ scheduler.Notifier = (*Notifier)(nil)
