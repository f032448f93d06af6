package payment

import (
	"github.com/smallbiznis/clubos/internal/clock"
	"github.com/smallbiznis/clubos/internal/payment/adapters"
	"github.com/smallbiznis/clubos/internal/payment/adapters/mercadopago"
	"github.com/smallbiznis/clubos/internal/payment/adapters/stripe"
	paymentdomain "github.com/smallbiznis/clubos/internal/payment/domain"
	paymentservice "github.com/smallbiznis/clubos/internal/payment/service"
	"github.com/smallbiznis/clubos/internal/payment/webhook"
	"github.com/smallbiznis/clubos/internal/ratelimit"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(func(clk clock.Clock) *adapters.Registry {
		return adapters.NewRegistry(
			stripe.NewFactory(clk),
			mercadopago.NewFactory(clk),
		)
	}),
	fx.Provide(provideLocker),
	fx.Provide(
		fx.Annotate(paymentservice.NewService, fx.As(new(paymentdomain.Reconciler))),
	),
	fx.Provide(webhook.NewService),
)

// provideLocker keeps an unconfigured redis locker from becoming a non-nil interface.
func provideLocker(locker *ratelimit.Locker) paymentservice.Locker {
	if locker == nil {
		return nil
	}
	return locker
}
