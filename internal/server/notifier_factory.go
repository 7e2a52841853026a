package server

import (
	"context"
	"log/slog"
	"time"

	"pickup-games/internal/config"
	"pickup-games/internal/metrics"
	"pickup-games/internal/notify"
)

const (
	notifyQueueSize = 256
	notifyBackoff   = 200 * time.Millisecond
)

// buildNotifier returns the dispatcher handed to the game service and a func
// that drains it on shutdown. Without a webhook URL events are only logged.
func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger, recorder *metrics.Recorder) (notify.Dispatcher, func(context.Context) error) {
	var sink notify.Dispatcher
	if cfg.WebhookURL == "" {
		sink = notify.NewLogDispatcher(logger)
	} else {
		webhook := notify.NewWebhook(notify.WebhookConfig{
			URL:     cfg.WebhookURL,
			Token:   cfg.WebhookToken,
			Timeout: cfg.Timeout,
		})
		sink = notify.NewRetryingDispatcher(webhook, logger, cfg.MaxAttempts, notifyBackoff)
		if logger != nil {
			logger.Info("notification webhook configured")
		}
	}

	async := notify.NewAsync(sink, logger, recorder, notifyQueueSize, cfg.Timeout)
	return async, async.Close
}
