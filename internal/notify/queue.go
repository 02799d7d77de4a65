package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abrahamjose02/Article-Feed-Api/internal/mq"
	"go.uber.org/zap"
)

// QueueSender hands messages to a broker instead of delivering them inline.
// A Worker on the other end performs the actual delivery.
type QueueSender struct {
	queue   *mq.MQ
	channel string
}

func NewQueueSender(queue *mq.MQ, channel string) *QueueSender {
	return &QueueSender{queue: queue, channel: channel}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	if !validRecipient(msg.To) {
		return fmt.Errorf("invalid recipient %q", msg.To)
	}
	if _, err := s.queue.PublishJSON(ctx, s.channel, msg); err != nil {
		return fmt.Errorf("enqueue mail to %s: %w", msg.To, err)
	}
	return nil
}

// Worker drains a notification channel into a Sender.
type Worker struct {
	queue   *mq.MQ
	channel string
	sender  Sender
	logger  *zap.Logger
}

func NewWorker(queue *mq.MQ, channel string, sender Sender, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: queue, channel: channel, sender: sender, logger: logger}
}

// Run blocks until ctx is done or the subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("mailer started", zap.String("channel", w.channel))
	return w.queue.Subscribe(ctx, w.channel, w.handle)
}

func (w *Worker) handle(ctx context.Context, m mq.Message) error {
	var msg Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		// Undecodable payloads can never succeed; acknowledge and drop them.
		w.logger.Error("dropping malformed notification", zap.String("message_id", m.ID), zap.Error(err))
		return nil
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("message_id", m.ID),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return err
	}
	w.logger.Info("notification delivered", zap.String("message_id", m.ID), zap.String("to", msg.To))
	return nil
}
