package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
)

// NotificationKind classifies a verified webhook event.
type NotificationKind int

const (
	// NotificationIgnored events are acknowledged without any state change.
	NotificationIgnored NotificationKind = iota
	// NotificationCheckoutCompleted links a checkout session to its customer.
	NotificationCheckoutCompleted
	// NotificationPeriodConfirmed moves the paid-through date forward.
	NotificationPeriodConfirmed
	// NotificationSubscriptionEnded ends the paid period.
	NotificationSubscriptionEnded
)

func (k NotificationKind) String() string {
	switch k {
	case NotificationCheckoutCompleted:
		return "checkout_completed"
	case NotificationPeriodConfirmed:
		return "period_confirmed"
	case NotificationSubscriptionEnded:
		return "subscription_ended"
	default:
		return "ignored"
	}
}

// TeamIDMetadataKey is the subscription metadata key that carries the team
// id. Checkout sessions carry it as client_reference_id instead.
const TeamIDMetadataKey = "team_id"

// Notification is the processor-independent summary of a webhook event.
type Notification struct {
	Kind NotificationKind

	// TeamID is the team the processor was told about at checkout, when the
	// event carries it. Used when the session or customer is not yet linked.
	TeamID string
	// OccurredAt is when the processor created the event. Zero when unknown.
	OccurredAt time.Time

	// CheckoutSessionID is set for checkout completions.
	CheckoutSessionID string
	// CustomerID identifies the team's billing record for subscription and
	// invoice events. For checkout completions it is the customer to record.
	CustomerID string
	// PeriodEnds is the confirmed paid-through time, or the end time for
	// NotificationSubscriptionEnded. Zero when the event carries none.
	PeriodEnds time.Time
}

// DecodeNotification extracts the billing-relevant fields from a verified event.
// Unknown event types, and subscription updates with a non-paying status,
// decode to NotificationIgnored.
func DecodeNotification(event stripe.Event) (Notification, error) {
	n, err := decodeNotification(event)
	if err != nil || n.Kind == NotificationIgnored {
		return n, err
	}
	if event.Created > 0 {
		n.OccurredAt = unix(event.Created)
	}
	return n, nil
}

func decodeNotification(event stripe.Event) (Notification, error) {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := decodeObject(event, &sess); err != nil {
			return Notification{}, err
		}
		n := Notification{
			Kind:              NotificationCheckoutCompleted,
			CheckoutSessionID: sess.ID,
			TeamID:            sess.ClientReferenceID,
		}
		if sess.Customer != nil {
			n.CustomerID = sess.Customer.ID
		}
		// Only present when the subscription was expanded on the session.
		if sess.Subscription != nil && sess.Subscription.CurrentPeriodEnd > 0 {
			n.PeriodEnds = unix(sess.Subscription.CurrentPeriodEnd)
		}
		return n, nil

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := decodeObject(event, &sub); err != nil {
			return Notification{}, err
		}
		if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
			return Notification{Kind: NotificationIgnored}, nil
		}
		if sub.Customer == nil || sub.CurrentPeriodEnd == 0 {
			return Notification{}, fmt.Errorf("subscription %s: missing customer or period end", sub.ID)
		}
		return Notification{
			Kind:       NotificationPeriodConfirmed,
			TeamID:     sub.Metadata[TeamIDMetadataKey],
			CustomerID: sub.Customer.ID,
			PeriodEnds: unix(sub.CurrentPeriodEnd),
		}, nil

	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := decodeObject(event, &inv); err != nil {
			return Notification{}, err
		}
		if inv.Customer == nil || inv.Lines == nil || len(inv.Lines.Data) == 0 || inv.Lines.Data[0].Period == nil {
			return Notification{}, fmt.Errorf("invoice %s: missing customer or line period", inv.ID)
		}
		return Notification{
			Kind:       NotificationPeriodConfirmed,
			TeamID:     invoiceTeamID(&inv),
			CustomerID: inv.Customer.ID,
			PeriodEnds: unix(inv.Lines.Data[0].Period.End),
		}, nil

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := decodeObject(event, &sub); err != nil {
			return Notification{}, err
		}
		if sub.Customer == nil {
			return Notification{}, fmt.Errorf("subscription %s: missing customer", sub.ID)
		}
		n := Notification{
			Kind:       NotificationSubscriptionEnded,
			TeamID:     sub.Metadata[TeamIDMetadataKey],
			CustomerID: sub.Customer.ID,
		}
		if sub.EndedAt > 0 {
			n.PeriodEnds = unix(sub.EndedAt)
		}
		return n, nil
	}

	return Notification{Kind: NotificationIgnored}, nil
}

// invoiceTeamID reads the subscription metadata copied onto the invoice.
func invoiceTeamID(inv *stripe.Invoice) string {
	if inv.SubscriptionDetails != nil {
		if id := inv.SubscriptionDetails.Metadata[TeamIDMetadataKey]; id != "" {
			return id
		}
	}
	return inv.Lines.Data[0].Metadata[TeamIDMetadataKey]
}

func decodeObject(event stripe.Event, v any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("event %s (%s): empty data object", event.ID, event.Type)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("event %s (%s): decode data object: %w", event.ID, event.Type, err)
	}
	return nil
}

func unix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
