package events

import (
	"context"
	"strings"

	"github.com/smallbiznis/clubos/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(newPublisher),
)

func newPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Publisher, error) {
	url := strings.TrimSpace(cfg.Events.AMQPURL)
	if url == "" {
		log.Named("events").Info("amqp url not set, booking events are not published")
		return NewNoopPublisher(), nil
	}

	pub, err := NewAMQPPublisher(url, cfg.Events.Exchange)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}
