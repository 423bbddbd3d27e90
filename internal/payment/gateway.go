// Package payment talks to the payment gateway and heals payment state from
// durable transaction records.
package payment

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"lifesure/internal/common/config"
	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/lifecycle"
)

// Gateway wraps the Stripe payment-intent API.
type Gateway struct {
	api      *client.API
	currency string
	logger   logger.Logger
}

func NewGateway(cfg config.PaymentConfig, log logger.Logger) *Gateway {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)
	return &Gateway{api: api, currency: cfg.Currency, logger: log}
}

// NewGatewayWithBackends is the test seam; it points the client at a supplied
// backend set.
func NewGatewayWithBackends(cfg config.PaymentConfig, backends *stripe.Backends, log logger.Logger) *Gateway {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, backends)
	return &Gateway{api: api, currency: cfg.Currency, logger: log}
}

// Intent is a created payment intent; the client secret goes back to the
// browser to collect the card.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// CreateIntent opens a payment intent for the given amount in the smallest
// currency unit, tagged with the application id for reconciliation.
func (g *Gateway) CreateIntent(ctx context.Context, amount int64, applicationID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: map[string]string{"applicationId": applicationID},
		},
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, stderrors.NewPaymentIntentFailedError(err)
	}

	g.logger.Info("payment intent created", map[string]interface{}{
		"intentId":      pi.ID,
		"applicationId": applicationID,
		"amount":        amount,
	})
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// VerifyCharge fetches the payment intent and reports whether it settled.
// The server never trusts a client-reported payment result.
func (g *Gateway) VerifyCharge(ctx context.Context, chargeID string) (*lifecycle.Charge, error) {
	pi, err := g.api.PaymentIntents.Get(chargeID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, stderrors.NewChargeVerificationFailedError(chargeID, err)
	}

	return &lifecycle.Charge{
		ID:            pi.ID,
		ApplicationID: pi.Metadata["applicationId"],
		Amount:        pi.Amount,
		Currency:      string(pi.Currency),
		Paid:          pi.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}
