package amqp

import (
	"context"
	"log/slog"
)

// Notifier adapts Client to the engine's fire-and-forget notification
// hook. Publish failures are logged and dropped; a mutation never fails
// because the broker is away.
type Notifier struct {
	client *Client
}

func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// NotifyChanged implements ledger.Notifier.
func (n *Notifier) NotifyChanged(ctx context.Context, op, id string) {
	if n.client == nil {
		return
	}
	if err := n.client.PublishLedgerChanged(ctx, op, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger change", "op", op, "id", id, "error", err)
	}
}
