package model

import "time"

// NotificationType classifies a notification for presentation purposes
// (icon and color); it carries no business meaning.
type NotificationType string

const (
	TypeSuccess NotificationType = "success"
	TypeWarning NotificationType = "warning"
	TypeInfo    NotificationType = "info"
	TypeError   NotificationType = "error"
)

// Fixed IDs and ID prefixes for the generated notification categories.
// Generation cycles produce the same ID for the same underlying event,
// so repeated cycles reconcile against the existing feed instead of
// duplicating entries.
const (
	IDOverdueInvoices = "overdue-invoices"
	IDTodaySales      = "today-sales"
	IDTodayCustomers  = "today-customers"

	PrefixPayment               = "payment-"
	PrefixPartialPayment        = "partial-payment-"
	PrefixPartialPaymentOverdue = "partial-payment-overdue-"
	PrefixHighValue             = "high-value-"

	// PrefixManual marks user-created notifications. Their IDs carry a
	// random suffix and are never regenerated, so they sit outside the
	// reconciliation scheme.
	PrefixManual = "manual-"
)

// Notification is a single entry in the feed surfaced to the user.
type Notification struct {
	// ID is unique within the feed. Generated categories use the
	// deterministic scheme above; manual entries get a fresh ID on add.
	ID string `json:"id"`

	// Type drives the icon and color shown by the client.
	Type NotificationType `json:"type"`

	// Title is the short heading shown in the feed.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Timestamp is when the underlying event was generated or observed.
	Timestamp time.Time `json:"timestamp"`

	// Read indicates whether the user has seen this notification.
	// Once true it stays true across generation cycles for as long as
	// the same ID recurs.
	Read bool `json:"read"`

	// ActionURL is an optional navigation target in the client.
	ActionURL string `json:"action_url,omitempty"`

	// ActionText labels the action link when ActionURL is set.
	ActionText string `json:"action_text,omitempty"`

	// Metadata holds domain-specific values carried for display only
	// (amounts, record IDs, counts).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TypeStyle describes how a notification type is rendered.
type TypeStyle struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// typeStyles maps each notification type to its presentation. A single
// lookup table keeps the mapping in one place instead of repeating the
// same switch at every call site.
var typeStyles = map[NotificationType]TypeStyle{
	TypeSuccess: {Icon: "check-circle", Color: "green"},
	TypeWarning: {Icon: "alert-triangle", Color: "amber"},
	TypeInfo:    {Icon: "info", Color: "blue"},
	TypeError:   {Icon: "alert-octagon", Color: "red"},
}

// StyleFor returns the presentation style for a notification type,
// falling back to the info style for unknown types.
func StyleFor(t NotificationType) TypeStyle {
	if s, ok := typeStyles[t]; ok {
		return s
	}
	return typeStyles[TypeInfo]
}
