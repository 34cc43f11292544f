package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Processor consumes the alerts queue.
type Processor struct {
	server *asynq.Server
	logger *slog.Logger
}

func NewProcessor(redisAddr string, logger *slog.Logger) *Processor {
	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueAlerts: 5,
		},
	})
	return &Processor{server: server, logger: logger}
}

// Start runs the worker in the background until Shutdown.
func (p *Processor) Start() error {
	if err := p.server.Start(p.Mux()); err != nil {
		return fmt.Errorf("start alert processor: %w", err)
	}
	p.logger.Info("alert processor started", "event", "alerts_started", "module", "alerts")
	return nil
}

func (p *Processor) Shutdown() {
	p.server.Shutdown()
}

func (p *Processor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSecurityAction, p.handleSecurityAlert)
	mux.HandleFunc(TaskPayoutTransfer, p.handlePayoutAlert)
	return mux
}

// Handlers below parse payloads and deliver them as structured log records.

func (p *Processor) handleSecurityAlert(ctx context.Context, t *asynq.Task) error {
	var a SecurityAlertPayload
	if err := json.Unmarshal(t.Payload(), &a); err != nil {
		return fmt.Errorf("decode security alert: %w: %w", err, asynq.SkipRetry)
	}
	p.logger.Log(ctx, levelFor(a.Severity), "security alert",
		"event", "security_alert",
		"module", "alerts",
		"severity", a.Severity,
		"action_type", a.ActionType,
		"log_id", a.LogID,
		"listing_id", a.ListingID,
		"order_id", a.OrderID,
		"performed_by", a.PerformedBy,
		"new_status", a.NewStatus,
		"warning", a.Warning,
	)
	return nil
}

func (p *Processor) handlePayoutAlert(ctx context.Context, t *asynq.Task) error {
	var a PayoutAlertPayload
	if err := json.Unmarshal(t.Payload(), &a); err != nil {
		return fmt.Errorf("decode payout alert: %w: %w", err, asynq.SkipRetry)
	}
	p.logger.Log(ctx, levelFor(a.Severity), "payout alert",
		"event", "payout_alert",
		"module", "alerts",
		"severity", a.Severity,
		"transfer_id", a.TransferID,
		"reference", a.Reference,
		"provider", a.Provider,
		"status", a.Status,
		"amount", a.Amount,
	)
	return nil
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityCritical:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
