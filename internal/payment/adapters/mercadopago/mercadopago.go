package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/clubos/internal/clock"
	paymentdomain "github.com/smallbiznis/clubos/internal/payment/domain"
)

const (
	DefaultAPIBaseURL   = "https://api.mercadopago.com"
	DefaultFetchTimeout = 5 * time.Second

	topicPayment = "payment"
)

type Factory struct {
	clock clock.Clock
}

// NewFactory builds Mercado Pago adapters. A nil clk uses the system clock.
func NewFactory(clk clock.Clock) *Factory {
	if clk == nil {
		clk = clock.System()
	}
	return &Factory{clock: clk}
}

func (f *Factory) Provider() string {
	return paymentdomain.ProviderMercadoPago
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.Normalizer, error) {
	token, _ := cfg.Config["access_token"].(string)
	baseURL, _ := cfg.Config["api_base_url"].(string)
	timeout, _ := cfg.Config["fetch_timeout"].(time.Duration)

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, paymentdomain.ErrInvalidConfig
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	return &Adapter{
		accessToken: strings.TrimSpace(token),
		baseURL:     baseURL,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
		clock:       f.clock,
	}, nil
}

type Adapter struct {
	accessToken string
	baseURL     string
	timeout     time.Duration
	client      *http.Client
	clock       clock.Clock
}

func (a *Adapter) Provider() string {
	return paymentdomain.ProviderMercadoPago
}

// Normalize resolves a notification into an event by fetching the payment it
// names. Every failure on the way is reported as ErrEventIgnored.
func (a *Adapter) Normalize(ctx context.Context, req *paymentdomain.WebhookRequest) (*paymentdomain.PaymentEvent, error) {
	if req == nil {
		return nil, paymentdomain.ErrEventIgnored
	}

	n := parseNotification(req)
	if n.topic != "" && n.topic != topicPayment {
		return nil, fmt.Errorf("%w: topic %s", paymentdomain.ErrEventIgnored, n.topic)
	}
	if n.paymentID == "" {
		return nil, fmt.Errorf("%w: no payment id", paymentdomain.ErrEventIgnored)
	}
	if a.accessToken == "" {
		return nil, fmt.Errorf("%w: access token not configured", paymentdomain.ErrEventIgnored)
	}

	payment, err := a.fetchPayment(ctx, n.paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch payment %s: %v", paymentdomain.ErrEventIgnored, n.paymentID, err)
	}

	outcome, ok := mapStatus(payment.Status)
	if !ok {
		return nil, fmt.Errorf("%w: payment %s status %s", paymentdomain.ErrEventIgnored, n.paymentID, payment.Status)
	}
	reference := strings.TrimSpace(payment.ExternalReference)
	if reference == "" {
		return nil, fmt.Errorf("%w: payment %s has no external reference", paymentdomain.ErrEventIgnored, n.paymentID)
	}

	providerPaymentID := payment.ID.String()
	if providerPaymentID == "" {
		providerPaymentID = n.paymentID
	}

	return &paymentdomain.PaymentEvent{
		Provider:          paymentdomain.ProviderMercadoPago,
		ProviderEventID:   n.paymentID,
		ExternalReference: reference,
		Outcome:           outcome,
		StatusDetail:      strings.TrimSpace(payment.StatusDetail),
		Amount:            toMinorUnits(payment.TransactionAmount),
		Currency:          strings.ToUpper(strings.TrimSpace(payment.CurrencyID)),
		ProviderPaymentID: providerPaymentID,
		OccurredAt:        payment.occurredAt(a.clock),
	}, nil
}

type notification struct {
	paymentID string
	topic     string
}

// parseNotification accepts the IPN query form and both JSON body shapes.
func parseNotification(req *paymentdomain.WebhookRequest) notification {
	var n notification
	if req.Query != nil {
		n.paymentID = firstNonEmpty(req.Query.Get("data.id"), req.Query.Get("id"))
		n.topic = firstNonEmpty(req.Query.Get("type"), req.Query.Get("topic"))
	}

	if len(req.Body) > 0 {
		var body notificationBody
		if err := json.Unmarshal(req.Body, &body); err == nil {
			if n.paymentID == "" {
				n.paymentID = firstNonEmpty(body.Data.ID.String(), body.ID.String())
			}
			if n.topic == "" {
				n.topic = firstNonEmpty(body.Type, body.Topic)
			}
		}
	}

	n.topic = strings.ToLower(n.topic)
	return n
}

type notificationBody struct {
	ID    flexibleID `json:"id"`
	Type  string     `json:"type"`
	Topic string     `json:"topic"`
	Data  struct {
		ID flexibleID `json:"id"`
	} `json:"data"`
}

// flexibleID decodes an identifier sent either as a JSON string or number.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = flexibleID(num.String())
	return nil
}

func (f flexibleID) String() string {
	return string(f)
}

type mpPayment struct {
	ID                flexibleID `json:"id"`
	Status            string     `json:"status"`
	StatusDetail      string     `json:"status_detail"`
	ExternalReference string     `json:"external_reference"`
	TransactionAmount float64    `json:"transaction_amount"`
	CurrencyID        string     `json:"currency_id"`
	DateApproved      string     `json:"date_approved"`
	DateLastUpdated   string     `json:"date_last_updated"`
}

// occurredAt prefers the approval time, then the last update, then clk.
func (p mpPayment) occurredAt(clk clock.Clock) time.Time {
	for _, raw := range []string{p.DateApproved, p.DateLastUpdated} {
		if raw == "" {
			continue
		}
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed.UTC()
		}
	}
	return clk.Now().UTC()
}

func (a *Adapter) fetchPayment(ctx context.Context, paymentID string) (mpPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	endpoint := a.baseURL + "/v1/payments/" + url.PathEscape(paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return mpPayment{}, err
	}
	req.Header.Set("Authorization", "Bearer "+a.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return mpPayment{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return mpPayment{}, fmt.Errorf("mercadopago responded %d", resp.StatusCode)
	}

	var payment mpPayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return mpPayment{}, err
	}
	return payment, nil
}

func mapStatus(status string) (paymentdomain.Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved":
		return paymentdomain.OutcomeApproved, true
	case "rejected":
		return paymentdomain.OutcomeRejected, true
	case "cancelled":
		return paymentdomain.OutcomeCancelled, true
	default:
		return "", false
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
