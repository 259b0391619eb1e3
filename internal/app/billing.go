package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"sorriai/internal/stripeclient"
	"sorriai/pkg/domain"
)

// billingClient is the slice of the Stripe API the application uses.
type billingClient interface {
	CreateCheckoutSession(ctx context.Context, priceID, customerEmail, userID, successURL, cancelURL string) (*stripeclient.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripeclient.PortalSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripeclient.Subscription, error)
}

// CreateCheckout opens a hosted checkout session upgrading the actor to
// the pro plan and returns the redirect URL.
func (a *App) CreateCheckout(ctx context.Context, actor domain.User) (string, error) {
	if a.billing == nil || a.stripeProPriceID == "" {
		return "", ErrBillingNotConfigured
	}
	session, err := a.billing.CreateCheckoutSession(ctx, a.stripeProPriceID, actor.Email, actor.ID, a.checkoutSuccessURL, a.checkoutCancelURL)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return session.URL, nil
}

// CreatePortal opens the customer billing portal for plan management.
func (a *App) CreatePortal(ctx context.Context, actor domain.User) (string, error) {
	if a.billing == nil {
		return "", ErrBillingNotConfigured
	}
	if actor.StripeCustomerID == "" {
		return "", ErrNoBillingAccount
	}
	session, err := a.billing.CreatePortalSession(ctx, actor.StripeCustomerID, a.billingReturnURL)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return session.URL, nil
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeCheckoutObject struct {
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeSubscriptionObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

type stripeInvoiceObject struct {
	Subscription string `json:"subscription"`
}

// HandleStripeEvent applies a verified webhook event to the local plan
// state. Unknown event types are acknowledged and ignored.
func (a *App) HandleStripeEvent(ctx context.Context, payload []byte) error {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("parse event: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripeCheckoutObject
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return fmt.Errorf("parse checkout session: %w", err)
		}
		userID := session.Metadata["user_id"]
		if userID == "" || session.Subscription == "" {
			return nil
		}
		status := "active"
		if a.billing != nil {
			if sub, err := a.billing.GetSubscription(ctx, session.Subscription); err == nil {
				status = sub.Status
			} else {
				slog.Warn("subscription lookup failed", "subscription_id", session.Subscription, "error", err)
			}
		}
		return a.updatePlan(userID, map[string]any{
			"plan":                   string(domain.PlanPro),
			"stripe_customer_id":     session.Customer,
			"stripe_subscription_id": session.Subscription,
			"subscription_status":    status,
		})

	case "customer.subscription.updated":
		var sub stripeSubscriptionObject
		if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		userID := sub.Metadata["user_id"]
		if userID == "" {
			return nil
		}
		fields := map[string]any{"subscription_status": sub.Status}
		switch sub.Status {
		case "active":
			fields["plan"] = string(domain.PlanPro)
		case "canceled", "unpaid":
			fields["plan"] = string(domain.PlanFree)
			fields["stripe_subscription_id"] = ""
		}
		return a.updatePlan(userID, fields)

	case "customer.subscription.deleted":
		var sub stripeSubscriptionObject
		if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		userID := sub.Metadata["user_id"]
		if userID == "" {
			return nil
		}
		return a.updatePlan(userID, map[string]any{
			"plan":                   string(domain.PlanFree),
			"stripe_subscription_id": "",
			"subscription_status":    "canceled",
		})

	case "invoice.payment_failed":
		var invoice stripeInvoiceObject
		if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
			return fmt.Errorf("parse invoice: %w", err)
		}
		if invoice.Subscription == "" || a.billing == nil {
			return nil
		}
		sub, err := a.billing.GetSubscription(ctx, invoice.Subscription)
		if err != nil {
			return fmt.Errorf("fetch subscription: %w", err)
		}
		userID := sub.Metadata["user_id"]
		if userID == "" {
			return nil
		}
		return a.updatePlan(userID, map[string]any{"subscription_status": "past_due"})
	}

	slog.Debug("ignoring stripe event", "type", event.Type)
	return nil
}

func (a *App) updatePlan(userID string, fields map[string]any) error {
	fields["updated_at"] = a.now().UTC()
	if err := a.store.UpdateUserFields(userID, fields); err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return nil
}
