package notify

import (
	"io"
	"log"

	"altomayo/internal/config"
	"altomayo/internal/metrics"
)

// Build собирает каналы уведомлений по настройкам. tg может быть nil:
// тогда уведомления агентству в Telegram не отправляются.
// Возвращенные io.Closer нужно закрыть при остановке.
func Build(cfg config.NotifyConfig, tg Sender, m *metrics.Metrics) (*Fanout, []io.Closer, error) {
	var (
		notifiers []Notifier
		closers   []io.Closer
	)

	if tg != nil && len(cfg.TelegramChats) > 0 {
		notifiers = append(notifiers, NewTelegramNotifier(tg, cfg.TelegramChats))
	}
	if cfg.Kafka.Enabled {
		w := NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		notifiers = append(notifiers, NewKafkaNotifier(w))
		closers = append(closers, w)
	}
	if cfg.SES.Enabled {
		svc, err := NewSESClient(cfg.SES.Region)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, nil, err
		}
		notifiers = append(notifiers, NewEmailNotifier(svc, cfg.SES.Sender))
	}

	f := NewFanout(m, notifiers...)
	log.Printf("каналов уведомлений: %d", f.Len())
	return f, closers, nil
}
