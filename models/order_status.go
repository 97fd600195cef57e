package models

// Order lifecycle statuses. An order moves forward through these and never
// backwards; the only cycle is in_review -> in_review while the customer and
// artisan go through revision rounds.
const (
	StatusPendingQuote    = "pending_quote"
	StatusPendingDeposit  = "pending_deposit"
	StatusAwaitingWigBase = "awaiting_wig_base"
	StatusQueued          = "queued"
	StatusInProgress      = "in_progress"
	StatusInReview        = "in_review"
	StatusPendingBalance  = "pending_balance"
	StatusShipped         = "shipped"
	StatusCompleted       = "completed"
)

// Wig sourcing modes: either the customer ships a wig base to the artisan or
// the artisan buys one themselves
const (
	WigSourceClientSends = "client_sends"
	WigSourceStylistBuys = "stylist_buys"
)

// AllOrderStatuses lists every status in lifecycle order
var AllOrderStatuses = []string{
	StatusPendingQuote,
	StatusPendingDeposit,
	StatusAwaitingWigBase,
	StatusQueued,
	StatusInProgress,
	StatusInReview,
	StatusPendingBalance,
	StatusShipped,
	StatusCompleted,
}

// OrderStatusText maps each status to a human-readable label
var OrderStatusText = map[string]string{
	StatusPendingQuote:    "Awaiting quote",
	StatusPendingDeposit:  "Awaiting deposit",
	StatusAwaitingWigBase: "Awaiting wig base",
	StatusQueued:          "Queued",
	StatusInProgress:      "In production",
	StatusInReview:        "In review",
	StatusPendingBalance:  "Awaiting balance",
	StatusShipped:         "Shipped",
	StatusCompleted:       "Completed",
}

// ValidStatusTransitions is the legal transition table for the order
// lifecycle. pending_deposit branches on wig_source: client_sends goes
// through awaiting_wig_base, stylist_buys goes straight to queued.
var ValidStatusTransitions = map[string][]string{
	StatusPendingQuote:    {StatusPendingDeposit},
	StatusPendingDeposit:  {StatusAwaitingWigBase, StatusQueued},
	StatusAwaitingWigBase: {StatusQueued},
	StatusQueued:          {StatusInProgress},
	StatusInProgress:      {StatusInReview},
	StatusInReview:        {StatusPendingBalance, StatusInReview},
	StatusPendingBalance:  {StatusShipped},
	StatusShipped:         {StatusCompleted},
	StatusCompleted:       {},
}

// IsValidStatusTransition reports whether an order may move from
// currentStatus to newStatus
func IsValidStatusTransition(currentStatus, newStatus string) bool {
	for _, allowed := range ValidStatusTransitions[currentStatus] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// IsOrderStatus reports whether s is one of the nine lifecycle statuses
func IsOrderStatus(s string) bool {
	_, ok := OrderStatusText[s]
	return ok
}

// NextStatusAfterDeposit returns the status an order enters once its deposit
// is confirmed, based on who supplies the wig base
func NextStatusAfterDeposit(wigSource string) string {
	if wigSource == WigSourceClientSends {
		return StatusAwaitingWigBase
	}
	return StatusQueued
}
