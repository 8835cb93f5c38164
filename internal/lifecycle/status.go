// Package lifecycle implements the demande and sale state machines.
// Every transition is a pure function over the entity's current state and
// the caller's input: it either mutates the entity to its next state or
// returns a typed error with no mutation at all. Persistence and
// authorization live in the services layer.
package lifecycle

import "strings"

// Demande statuses, canonical vocabulary. Status values exchanged with
// callers are these exact upper-snake-case strings.
const (
	DemandeAwaitingDeposit = "AWAITING_DEPOSIT"
	DemandeDepositPaid     = "DEPOSIT_PAID"
	DemandeAccepted        = "ACCEPTED"
	DemandeInAnalysis      = "IN_ANALYSIS"
	DemandeProposalFound   = "PROPOSAL_FOUND"
	DemandeAwaitingBalance = "AWAITING_BALANCE"
	DemandeCompleted       = "COMPLETED"
	DemandeCancelled       = "CANCELLED"
)

// Sale statuses, canonical vocabulary.
const (
	SaleWaitingAdminApproval = "WAITING_ADMIN_APPROVAL"
	SalePaymentPending       = "PAYMENT_PENDING"
	SalePaymentSubmitted     = "PAYMENT_SUBMITTED"
	SaleShippingPending      = "SHIPPING_PENDING"
	SaleShipped              = "SHIPPED"
	SaleCompleted            = "COMPLETED"
	SaleRejected             = "REJECTED"
)

// demandeAliases maps statuses from the earlier persistence scheme onto
// the canonical set. Resolved once at the boundary so the state machine
// only ever sees canonical tags.
var demandeAliases = map[string]string{
	"DEPOSIT_PENDING":        DemandeAwaitingDeposit,
	"ANALYSIS":               DemandeInAnalysis,
	"ANALYSIS_AFTER_DEPOSIT": DemandeInAnalysis,
}

var saleAliases = map[string]string{
	"CANCELLED": SaleRejected,
}

var demandeCanonical = map[string]bool{
	DemandeAwaitingDeposit: true,
	DemandeDepositPaid:     true,
	DemandeAccepted:        true,
	DemandeInAnalysis:      true,
	DemandeProposalFound:   true,
	DemandeAwaitingBalance: true,
	DemandeCompleted:       true,
	DemandeCancelled:       true,
}

var saleCanonical = map[string]bool{
	SaleWaitingAdminApproval: true,
	SalePaymentPending:       true,
	SalePaymentSubmitted:     true,
	SaleShippingPending:      true,
	SaleShipped:              true,
	SaleCompleted:            true,
	SaleRejected:             true,
}

// CanonicalDemandeStatus resolves a stored status (possibly from the
// legacy vocabulary) to the canonical tag. Unknown statuses are returned
// verbatim with ok=false; consumers must display them rather than fail.
func CanonicalDemandeStatus(raw string) (status string, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if alias, found := demandeAliases[s]; found {
		return alias, true
	}
	if demandeCanonical[s] {
		return s, true
	}
	return raw, false
}

// CanonicalSaleStatus is CanonicalDemandeStatus for the sale vocabulary.
func CanonicalSaleStatus(raw string) (status string, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if alias, found := saleAliases[s]; found {
		return alias, true
	}
	if saleCanonical[s] {
		return s, true
	}
	return raw, false
}

// DemandeTerminal reports whether the status admits no further transitions.
func DemandeTerminal(status string) bool {
	s, _ := CanonicalDemandeStatus(status)
	return s == DemandeCompleted || s == DemandeCancelled
}

// SaleTerminal reports whether the sale status is terminal.
func SaleTerminal(status string) bool {
	s, _ := CanonicalSaleStatus(status)
	return s == SaleCompleted || s == SaleRejected
}
