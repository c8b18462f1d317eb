package billing

import "alcyxob/fitness-hub/internal/domain"

// processorStatuses maps processor subscription statuses onto local ones.
var processorStatuses = map[string]domain.SubscriptionStatus{
	"active":             domain.SubscriptionActive,
	"trialing":           domain.SubscriptionActive,
	"past_due":           domain.SubscriptionPastDue,
	"unpaid":             domain.SubscriptionPastDue,
	"canceled":           domain.SubscriptionCanceled,
	"incomplete_expired": domain.SubscriptionCanceled,
	"incomplete":         domain.SubscriptionPending,
}

// MapStatus translates a processor subscription status. Unknown values
// map to pending.
func MapStatus(processorStatus string) domain.SubscriptionStatus {
	if s, ok := processorStatuses[processorStatus]; ok {
		return s
	}
	return domain.SubscriptionPending
}
