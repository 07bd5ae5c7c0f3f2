package eventbus

import (
	"context"

	"github.com/annel0/voxedit/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus, logger *logging.Logger) (Subscription, error) {
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		if ev.EventType == EventBlockChanges {
			var payload BlockChanges
			if err := ev.Decode(&payload); err != nil {
				logger.Warn("[EventBus] %s: не удалось разобрать %s: %v", ev.ID, ev.EventType, err)
				return
			}
			logger.Debug("[EventBus] %s %s src=%s блоков=%d", ev.ID, ev.EventType, ev.Source, len(payload.Changes))
			return
		}
		logger.Debug("[EventBus] %s %s src=%s size=%dB", ev.ID, ev.EventType, ev.Source, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("LoggingListener: подписка на все события активирована")
	return sub, nil
}
