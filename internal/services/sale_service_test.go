package services

import (
	"context"
	"errors"
	"testing"

	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/lifecycle"
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/notify"
	"github.com/downpricer/downpricer/internal/store"
	"gorm.io/gorm"
)

var sellerActor = &gate.Actor{ID: 2, Roles: []gate.Role{gate.RoleSeller}}

func newSaleService(db *gorm.DB) *SaleService {
	return NewSaleService(store.NewSaleStore(db), store.NewAuditStore(db), notify.LogNotifier{})
}

func seedArticle(t *testing.T, db *gorm.DB, sellerID uint, price float64) *models.Article {
	t.Helper()
	a := &models.Article{SellerID: sellerID, Name: "Jordan 1 Mocha", Price: price}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return a
}

func TestSaleDeclare(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	article := seedArticle(t, db, sellerActor.ID, 150)

	sale, err := svc.Declare(context.Background(), sellerActor, article.PublicID, 220, "mondial-relay-77")
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	if sale.Status != lifecycle.SaleWaitingAdminApproval {
		t.Fatalf("status = %s, want WAITING_ADMIN_APPROVAL", sale.Status)
	}
	if sale.Profit != 70 || sale.SellerCost != 150 {
		t.Fatalf("profit = %f / cost = %f, want 70 / 150", sale.Profit, sale.SellerCost)
	}
}

func TestSaleDeclareOnlyOwnArticle(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	article := seedArticle(t, db, 42, 150)

	_, err := svc.Declare(context.Background(), sellerActor, article.PublicID, 220, "ref")
	if !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSaleDeclareOneOpenSalePerArticle(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	ctx := context.Background()
	article := seedArticle(t, db, sellerActor.ID, 150)

	if _, err := svc.Declare(ctx, sellerActor, article.PublicID, 220, "ref"); err != nil {
		t.Fatalf("first declare: %v", err)
	}
	_, err := svc.Declare(ctx, sellerActor, article.PublicID, 230, "ref2")
	var ve *lifecycle.ValidationError
	if !errors.As(err, &ve) || ve.Violations["article_id"] != "already_on_sale" {
		t.Fatalf("err = %v, want already_on_sale violation", err)
	}
}

func TestSaleDeclareAgainAfterRejection(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	ctx := context.Background()
	article := seedArticle(t, db, sellerActor.ID, 150)

	first, _ := svc.Declare(ctx, sellerActor, article.PublicID, 220, "ref")
	if _, err := svc.Reject(ctx, adminActor, first.PublicID, "prix incohérent"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Declare(ctx, sellerActor, article.PublicID, 200, "ref2"); err != nil {
		t.Fatalf("redeclare after rejection: %v", err)
	}
}

func TestSaleFullAdminFlow(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	ctx := context.Background()
	article := seedArticle(t, db, sellerActor.ID, 150)

	sale, _ := svc.Declare(ctx, sellerActor, article.PublicID, 220, "ref")
	if _, err := svc.Approve(ctx, adminActor, sale.PublicID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.SubmitPaymentProof(ctx, sellerActor, sale.PublicID, "vinted", "", "https://vinted.fr/tx/5", ""); err != nil {
		t.Fatalf("submit proof: %v", err)
	}
	if _, err := svc.ConfirmPayment(ctx, adminActor, sale.PublicID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if _, err := svc.MarkShipped(ctx, adminActor, sale.PublicID, "6A999"); err != nil {
		t.Fatalf("mark shipped: %v", err)
	}
	final, err := svc.Complete(ctx, adminActor, sale.PublicID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if final.Status != lifecycle.SaleCompleted {
		t.Fatalf("status = %s, want COMPLETED", final.Status)
	}

	// Proof row persisted with the transition.
	got, _ := svc.ByPublicID(ctx, adminActor, sale.PublicID)
	if got.PaymentProof == nil || got.PaymentProof.Method != "vinted" {
		t.Fatal("payment proof missing")
	}

	audit, _ := store.NewAuditStore(db).ByEntity(ctx, "Sale", sale.PublicID)
	if len(audit) != 6 {
		t.Fatalf("got %d audit rows, want 6", len(audit))
	}
}

func TestSaleSubmitProofOnlySeller(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	ctx := context.Background()
	article := seedArticle(t, db, sellerActor.ID, 150)

	sale, _ := svc.Declare(ctx, sellerActor, article.PublicID, 220, "ref")
	svc.Approve(ctx, adminActor, sale.PublicID)

	other := &gate.Actor{ID: 8, Roles: []gate.Role{gate.RoleSeller}}
	_, err := svc.SubmitPaymentProof(ctx, other, sale.PublicID, "autre", "", "", "")
	if !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSaleRejectPayment(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	ctx := context.Background()
	article := seedArticle(t, db, sellerActor.ID, 150)

	sale, _ := svc.Declare(ctx, sellerActor, article.PublicID, 220, "ref")
	svc.Approve(ctx, adminActor, sale.PublicID)
	svc.SubmitPaymentProof(ctx, sellerActor, sale.PublicID, "paypal", "https://img.example.com/p.png", "", "")

	got, err := svc.RejectPayment(ctx, adminActor, sale.PublicID, "capture retouchée")
	if err != nil {
		t.Fatalf("reject payment: %v", err)
	}
	if got.Status != lifecycle.SaleRejected || got.RejectReason == "" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestSaleConcurrentAdminActions(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	ctx := context.Background()
	article := seedArticle(t, db, sellerActor.ID, 150)

	sale, _ := svc.Declare(ctx, sellerActor, article.PublicID, 220, "ref")

	// Two admins race on the same fresh sale: approve lands first, the
	// reject sees the already-moved row.
	if _, err := svc.Approve(ctx, adminActor, sale.PublicID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err := svc.Reject(ctx, adminActor, sale.PublicID, "doublon")
	if !errors.Is(err, lifecycle.ErrGuardViolation) {
		t.Fatalf("err = %v, want GuardViolation", err)
	}
}

func TestSaleListsScopedBySeller(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newSaleService(db)
	ctx := context.Background()

	mine := seedArticle(t, db, sellerActor.ID, 100)
	theirs := seedArticle(t, db, 8, 100)
	svc.Declare(ctx, sellerActor, mine.PublicID, 150, "ref")
	svc.Declare(ctx, &gate.Actor{ID: 8, Roles: []gate.Role{gate.RoleSeller}}, theirs.PublicID, 150, "ref")

	own, err := svc.ForSeller(ctx, sellerActor)
	if err != nil {
		t.Fatalf("for seller: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("got %d sales, want 1", len(own))
	}
	all, err := svc.All(ctx, adminActor)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d sales, want 2", len(all))
	}
	if _, err := svc.All(ctx, sellerActor); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("seller must not list all sales, got %v", err)
	}
}
