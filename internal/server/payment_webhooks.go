package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/clubos/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/clubos/internal/payment/domain"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// HandleStripeWebhook verifies the signature over the raw body before anything is parsed.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.webhooks.Handle(c.Request.Context(), paymentdomain.ProviderStripe, &paymentdomain.WebhookRequest{
		Body:   payload,
		Header: c.Request.Header,
		Query:  c.Request.URL.Query(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// HandleMercadoPagoWebhook always acknowledges so the provider stops retrying.
func (s *Server) HandleMercadoPagoWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.FromContext(ctx).Warn("mercadopago webhook body unreadable", zap.Error(err))
		payload = nil
	}

	err = s.webhooks.Handle(ctx, paymentdomain.ProviderMercadoPago, &paymentdomain.WebhookRequest{
		Body:   payload,
		Header: c.Request.Header,
		Query:  c.Request.URL.Query(),
	})
	if err != nil {
		logger.FromContext(ctx).Warn("mercadopago webhook not processed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
