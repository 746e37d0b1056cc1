package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrCardDeclined is returned by a CardGateway when the charge did not succeed
// for a reason the customer can act on (declined card, authentication required, ...).
var ErrCardDeclined = errors.New("card declined")

// ErrCardPaymentsDisabled is returned by DisabledGateway
var ErrCardPaymentsDisabled = errors.New("card payments are not enabled")

// ChargeResult describes a card charge
type ChargeResult struct {
	PaymentIntentID string
	Status          string
	DeclineMessage  string
}

// CardGateway charges and refunds cards
type CardGateway interface {
	Charge(ctx context.Context, amountCents int64, currency, paymentToken string, bookingID int64) (*ChargeResult, error)
	Refund(ctx context.Context, paymentIntentID string) (string, error)
}

// StripeGateway implements CardGateway with Stripe PaymentIntents
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a gateway for the given secret key. backends may be
// nil for the Stripe defaults.
func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api}
}

// Charge creates and confirms a PaymentIntent for the token. A declined card
// returns a ChargeResult carrying the decline message together with ErrCardDeclined.
func (g *StripeGateway) Charge(
	ctx context.Context,
	amountCents int64,
	currency, paymentToken string,
	bookingID int64,
) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(currency),
		PaymentMethod:      stripe.String(paymentToken),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(fmt.Sprintf("Booking #%d", bookingID)),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", strconv.FormatInt(bookingID, 10))

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			result := &ChargeResult{DeclineMessage: stripeErr.Msg}
			if stripeErr.PaymentIntent != nil {
				result.PaymentIntentID = stripeErr.PaymentIntent.ID
				result.Status = string(stripeErr.PaymentIntent.Status)
			}
			return result, ErrCardDeclined
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	result := &ChargeResult{PaymentIntentID: intent.ID, Status: string(intent.Status)}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		result.DeclineMessage = fmt.Sprintf("payment not completed (status %s)", intent.Status)
		return result, ErrCardDeclined
	}
	return result, nil
}

// Refund refunds the full amount of a PaymentIntent and returns the refund id
func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentIntentID)}
	params.Context = ctx

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to refund payment intent %s: %w", paymentIntentID, err)
	}
	return refund.ID, nil
}

// DisabledGateway rejects every charge; used when no Stripe key is configured
type DisabledGateway struct{}

func (DisabledGateway) Charge(context.Context, int64, string, string, int64) (*ChargeResult, error) {
	return nil, ErrCardPaymentsDisabled
}

func (DisabledGateway) Refund(context.Context, string) (string, error) {
	return "", ErrCardPaymentsDisabled
}
