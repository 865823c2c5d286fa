package stripe

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v84"
	checksession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// Enabled reports whether a secret key is configured. Deposits are
// rejected at the handler when it is not.
func (c *Client) Enabled() bool {
	return c.cfg.SecretKey != ""
}

// CreateDepositSession creates a one-time checkout session for a wallet
// top-up and returns the hosted payment URL. The wallet ID and amount
// ride along as metadata for the webhook to credit from.
func (c *Client) CreateDepositSession(email string, walletID int64, amount decimal.Decimal) (string, error) {
	minor := amount.Mul(decimal.NewFromInt(100)).IntPart()
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.cfg.Currency),
					UnitAmount: stripe.Int64(minor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Wallet deposit"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
		Metadata: map[string]string{
			"wallet_id": strconv.FormatInt(walletID, 10),
			"amount":    amount.String(),
		},
	}
	sess, err := checksession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}

// DepositDetails extracts the wallet ID and amount a completed checkout
// session carries in its metadata.
func DepositDetails(sess *stripe.CheckoutSession) (int64, decimal.Decimal, error) {
	walletID, err := strconv.ParseInt(sess.Metadata["wallet_id"], 10, 64)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("parse wallet id: %w", err)
	}
	amount, err := decimal.NewFromString(sess.Metadata["amount"])
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("parse amount: %w", err)
	}
	return walletID, amount, nil
}
