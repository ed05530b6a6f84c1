package domain

// Request lifecycle statuses. The payment flow moves a request from
// StatusPending through StatusPaymentPending into one of the two payment
// outcomes; StatusCompleted is set by staff closure and is treated as paid
// for reporting purposes.
const (
	StatusPending          = "pending"
	StatusPaymentPending   = "payment_pending"
	StatusPaymentConfirmed = "payment_confirmed"
	StatusPaymentFailed    = "payment_failed"
	StatusCompleted        = "completed"
)

// PaymentStatusPaid is the payment_status marker written by webhook updates.
const PaymentStatusPaid = "paid"

// MapProviderStatus translates a provider transaction status into the
// internal request status:
//
//	approved, transferred → payment_confirmed
//	declined, canceled    → payment_failed
//	anything else         → pending
func MapProviderStatus(providerStatus string) string {
	switch providerStatus {
	case "approved", "transferred":
		return StatusPaymentConfirmed
	case "declined", "canceled":
		return StatusPaymentFailed
	default:
		return StatusPending
	}
}

// IsTerminal reports whether a status is a terminal payment outcome. Terminal
// statuses are never regressed by a later non-terminal webhook delivery.
func IsTerminal(status string) bool {
	return status == StatusPaymentConfirmed || status == StatusPaymentFailed
}

// IsPaid reports whether a status counts as paid for reporting. Both the
// webhook-confirmed state and the staff-closed state qualify.
func IsPaid(status string) bool {
	return status == StatusPaymentConfirmed || status == StatusCompleted
}
