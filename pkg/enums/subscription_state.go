package enums

// SubscriptionState is the computed lifecycle state of a shop's plan. It is
// never persisted; "expired" is always derived from the expiry timestamp.
type SubscriptionState string

const (
	SubscriptionNoPlan  SubscriptionState = "no_plan"
	SubscriptionActive  SubscriptionState = "active"
	SubscriptionExpired SubscriptionState = "expired"
)

// String implements fmt.Stringer.
func (s SubscriptionState) String() string {
	return string(s)
}
