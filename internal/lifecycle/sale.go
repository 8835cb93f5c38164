package lifecycle

import (
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/validation"
)

// PaymentMethods is the closed set accepted by SubmitPaymentProof.
var PaymentMethods = []string{"paypal", "vinted", "autre"}

func guardSale(s *models.Sale, action string, allowed ...string) (string, error) {
	current, _ := CanonicalSaleStatus(s.Status)
	for _, a := range allowed {
		if current == a {
			return current, nil
		}
	}
	return "", &GuardViolation{Entity: "sale", Action: action, From: s.Status}
}

// DeclareSale builds a new sale against a seller-owned article.
// SalePrice must be positive and the shipping label reference is
// mandatory. Profit is derived here and never edited afterwards.
func DeclareSale(article *models.Article, salePrice float64, shippingLabelRef string) (*models.Sale, error) {
	v := validation.Violations{}
	validation.PositiveFloat("sale_price", salePrice, v)
	validation.Required("shipping_label_ref", shippingLabelRef, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	return &models.Sale{
		SellerID:         article.SellerID,
		ArticleID:        article.ID,
		SalePrice:        salePrice,
		SellerCost:       article.Price,
		Profit:           salePrice - article.Price,
		ShippingLabelRef: shippingLabelRef,
		Status:           SaleWaitingAdminApproval,
	}, nil
}

// ApproveSale moves WAITING_ADMIN_APPROVAL → PAYMENT_PENDING.
func ApproveSale(s *models.Sale) error {
	if _, err := guardSale(s, "approve", SaleWaitingAdminApproval); err != nil {
		return err
	}
	s.Status = SalePaymentPending
	return nil
}

// SubmitPaymentProof records the seller's payment evidence and moves
// PAYMENT_PENDING → PAYMENT_SUBMITTED. Method rules:
//   - paypal: a proof reference (screenshot) is mandatory
//   - vinted: either a transaction link or a proof reference
//   - autre: no evidence constraint
func SubmitPaymentProof(s *models.Sale, method, proofURL, link, note string) error {
	v := validation.Violations{}
	validation.Required("method", method, v)
	validation.OneOf("method", method, PaymentMethods, v)
	switch method {
	case "paypal":
		if proofURL == "" {
			v["proof_url"] = "required"
		}
	case "vinted":
		if proofURL == "" && link == "" {
			v["proof_url"] = "required_link_or_proof"
		}
	}
	if err := invalid(v); err != nil {
		return err
	}
	if _, err := guardSale(s, "submit_payment_proof", SalePaymentPending); err != nil {
		return err
	}
	s.Status = SalePaymentSubmitted
	s.PaymentProof = &models.PaymentProof{
		SaleID:   s.ID,
		Method:   method,
		ProofURL: proofURL,
		Link:     link,
		Note:     note,
	}
	return nil
}

// ConfirmPayment moves PAYMENT_SUBMITTED → SHIPPING_PENDING.
func ConfirmPayment(s *models.Sale) error {
	if _, err := guardSale(s, "confirm_payment", SalePaymentSubmitted); err != nil {
		return err
	}
	s.Status = SaleShippingPending
	return nil
}

// RejectPayment refuses the submitted evidence with a mandatory reason.
func RejectPayment(s *models.Sale, reason string) error {
	v := validation.Violations{}
	validation.Required("reason", reason, v)
	if err := invalid(v); err != nil {
		return err
	}
	if _, err := guardSale(s, "reject_payment", SalePaymentSubmitted); err != nil {
		return err
	}
	s.Status = SaleRejected
	s.RejectReason = reason
	return nil
}

// RejectSale refuses a freshly declared sale with a mandatory reason.
func RejectSale(s *models.Sale, reason string) error {
	v := validation.Violations{}
	validation.Required("reason", reason, v)
	if err := invalid(v); err != nil {
		return err
	}
	if _, err := guardSale(s, "reject", SaleWaitingAdminApproval); err != nil {
		return err
	}
	s.Status = SaleRejected
	s.RejectReason = reason
	return nil
}

// MarkShipped moves SHIPPING_PENDING → SHIPPED. An empty tracking number
// is tolerated (some carriers have none) but discouraged.
func MarkShipped(s *models.Sale, trackingNumber string) error {
	if _, err := guardSale(s, "mark_shipped", SaleShippingPending); err != nil {
		return err
	}
	s.Status = SaleShipped
	s.TrackingNumber = trackingNumber
	return nil
}

// CompleteSale closes the transaction: SHIPPED → COMPLETED.
func CompleteSale(s *models.Sale) error {
	if _, err := guardSale(s, "complete", SaleShipped); err != nil {
		return err
	}
	s.Status = SaleCompleted
	return nil
}
