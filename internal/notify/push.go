package notify

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/abebe-delivery/gateway/internal/config"
)

// multicastLimit is the per-call token cap imposed by FCM.
const multicastLimit = 500

// Sender delivers push messages to devices.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// NewSender builds an FCM-backed sender, or a no-op one when push delivery
// is disabled so the rest of the pipeline keeps working in development.
func NewSender(cfg config.Config, logger *zap.Logger) (Sender, error) {
	if !cfg.Push.Enabled {
		logger.Warn("push delivery disabled, using noop sender")
		return &noopSender{logger: logger}, nil
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON([]byte(cfg.Push.CredentialsJSON)))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &fcmSender{client: client, logger: logger}, nil
}

type fcmSender struct {
	client *messaging.Client
	logger *zap.Logger
}

func (s *fcmSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	_, err := s.client.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	return err
}

func (s *fcmSender) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	for start := 0; start < len(tokens); start += multicastLimit {
		end := start + multicastLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       tokens[start:end],
			Notification: &messaging.Notification{Title: title, Body: body},
			Data:         data,
		})
		if err != nil {
			return err
		}
		if resp.FailureCount > 0 {
			s.logger.Warn("partial multicast failure",
				zap.Int("failed", resp.FailureCount),
				zap.Int("sent", resp.SuccessCount),
			)
		}
	}
	return nil
}

type noopSender struct {
	logger *zap.Logger
}

func (s *noopSender) Send(_ context.Context, token, title, _ string, _ map[string]string) error {
	s.logger.Debug("push skipped", zap.String("title", title), zap.Int("token_len", len(token)))
	return nil
}

func (s *noopSender) SendMulticast(_ context.Context, tokens []string, title, _ string, _ map[string]string) error {
	s.logger.Debug("broadcast skipped", zap.String("title", title), zap.Int("tokens", len(tokens)))
	return nil
}
