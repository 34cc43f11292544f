package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sudo-init-do/gamemarket/internal/payout"
	"github.com/sudo-init-do/gamemarket/internal/security"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

// Client enqueues staff alerts on Redis.
type Client struct {
	client *asynq.Client
	now    func() time.Time
}

func NewClient(redisAddr string) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		now:    time.Now,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// NotifySecurityAction schedules an alert for an applied security action.
func (c *Client) NotifySecurityAction(ctx context.Context, l security.Log) error {
	task, err := NewSecurityAlertTask(l, c.now())
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueAlerts), asynq.MaxRetry(5))
	return err
}

// NotifyPayout schedules an alert for a payout transfer attempt.
func (c *Client) NotifyPayout(ctx context.Context, t store.Transfer) error {
	task, err := NewPayoutAlertTask(t, c.now())
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueAlerts), asynq.MaxRetry(5))
	return err
}

func NewSecurityAlertTask(l security.Log, now time.Time) (*asynq.Task, error) {
	payload := SecurityAlertPayload{
		LogID:           l.ID,
		ActionType:      l.ActionType,
		ListingID:       l.ListingID,
		OrderID:         l.OrderID,
		PerformedBy:     l.PerformedBy,
		PerformedByName: l.PerformedByName,
		Reason:          l.Reason,
		PreviousStatus:  l.PreviousStatus,
		NewStatus:       l.NewStatus,
		Warning:         l.Metadata["warning"],
		Severity:        SeverityFor(l),
		SentAt:          now,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal security alert: %w", err)
	}
	return asynq.NewTask(TaskSecurityAction, b), nil
}

func NewPayoutAlertTask(t store.Transfer, now time.Time) (*asynq.Task, error) {
	severity := SeverityInfo
	if t.Status == payout.StatusFailed {
		severity = SeverityWarning
	}
	payload := PayoutAlertPayload{
		TransferID:  t.ID,
		Reference:   t.Reference,
		Provider:    t.Provider,
		Status:      string(t.Status),
		Amount:      t.ConvertedAmount.StringFixed(2),
		RequestedBy: t.RequestedBy,
		Severity:    severity,
		SentAt:      now,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payout alert: %w", err)
	}
	return asynq.NewTask(TaskPayoutTransfer, b), nil
}
