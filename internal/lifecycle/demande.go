package lifecycle

import (
	"time"

	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/validation"
)

// guardDemande resolves the current status and checks it against the set
// of statuses the action accepts. Returns the canonical status on success.
func guardDemande(d *models.Demande, action string, allowed ...string) (string, error) {
	current, _ := CanonicalDemandeStatus(d.Status)
	for _, a := range allowed {
		if current == a {
			return current, nil
		}
	}
	return "", &GuardViolation{Entity: "demande", Action: action, From: d.Status}
}

// RequestDeposit attaches a hosted-processor payment link to an
// in-analysis demande and moves it to AWAITING_DEPOSIT so the client can
// pay. The link must be a well-formed absolute URL.
func RequestDeposit(d *models.Demande, paymentURL string) error {
	v := validation.Violations{}
	validation.AbsoluteURL("deposit_payment_url", paymentURL, v)
	if err := invalid(v); err != nil {
		return err
	}
	if _, err := guardDemande(d, "request_deposit", DemandeInAnalysis); err != nil {
		return err
	}
	d.Status = DemandeAwaitingDeposit
	d.DepositPaymentURL = paymentURL
	return nil
}

// MarkDepositPaid records deposit collection: AWAITING_DEPOSIT → DEPOSIT_PAID.
func MarkDepositPaid(d *models.Demande) error {
	if _, err := guardDemande(d, "mark_deposit_paid", DemandeAwaitingDeposit); err != nil {
		return err
	}
	now := time.Now()
	d.Status = DemandeDepositPaid
	d.DepositPaidAt = &now
	return nil
}

// AcceptDemande moves DEPOSIT_PAID → ACCEPTED.
func AcceptDemande(d *models.Demande) error {
	if _, err := guardDemande(d, "accept", DemandeDepositPaid); err != nil {
		return err
	}
	d.Status = DemandeAccepted
	return nil
}

// BeginAnalysis moves ACCEPTED → IN_ANALYSIS.
func BeginAnalysis(d *models.Demande) error {
	if _, err := guardDemande(d, "begin_analysis", DemandeAccepted); err != nil {
		return err
	}
	d.Status = DemandeInAnalysis
	return nil
}

// MarkProposalFound moves IN_ANALYSIS → PROPOSAL_FOUND.
func MarkProposalFound(d *models.Demande) error {
	if _, err := guardDemande(d, "mark_proposal_found", DemandeInAnalysis); err != nil {
		return err
	}
	d.Status = DemandeProposalFound
	return nil
}

// CompleteDemande closes the demande from AWAITING_BALANCE or
// PROPOSAL_FOUND.
func CompleteDemande(d *models.Demande) error {
	if _, err := guardDemande(d, "complete", DemandeAwaitingBalance, DemandeProposalFound); err != nil {
		return err
	}
	d.Status = DemandeCompleted
	return nil
}

// CancelDemande is available from every non-terminal state and requires a
// reason. Deposit-payment fields already set on the demande are kept:
// cancellation must never destroy payment records.
func CancelDemande(d *models.Demande, reason string) error {
	v := validation.Violations{}
	validation.Required("reason", reason, v)
	if err := invalid(v); err != nil {
		return err
	}
	if DemandeTerminal(d.Status) {
		return &GuardViolation{Entity: "demande", Action: "cancel", From: d.Status}
	}
	d.Status = DemandeCancelled
	d.CancelReason = reason
	return nil
}

// OverrideDemandeStatus is the manual correction path: it bypasses edge
// validation but still requires a known status. The caller must write an
// audit entry for every use.
func OverrideDemandeStatus(d *models.Demande, status string) error {
	canon, ok := CanonicalDemandeStatus(status)
	if !ok {
		return invalid(validation.Violations{"status": "unknown_status"})
	}
	d.Status = canon
	return nil
}
