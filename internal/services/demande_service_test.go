package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/lifecycle"
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/notify"
	"github.com/downpricer/downpricer/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Role{}, &models.Subscription{},
		&models.Demande{}, &models.DepositPayment{},
		&models.Article{}, &models.Sale{}, &models.PaymentProof{},
		&models.Minisite{}, &models.AuditLog{}, &models.Notification{},
		&models.ProArticle{}, &models.ProTransaction{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newDemandeService(db *gorm.DB) *DemandeService {
	return NewDemandeService(store.NewDemandeStore(db), store.NewAuditStore(db), notify.LogNotifier{}, 0.30, false)
}

var (
	clientActor = &gate.Actor{ID: 1, Roles: []gate.Role{gate.RoleClient}}
	adminActor  = &gate.Actor{ID: 9, Roles: []gate.Role{gate.RoleAdmin}}
)

func TestDemandeCreate(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))

	d, err := svc.Create(context.Background(), clientActor, CreateDemandeInput{Name: "Air Max 1", MaxPrice: 200})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Status != lifecycle.DemandeAwaitingDeposit {
		t.Fatalf("status = %s, want AWAITING_DEPOSIT", d.Status)
	}
	if d.DepositAmount != 60 {
		t.Fatalf("deposit = %f, want 60 (30%% of 200)", d.DepositAmount)
	}
	if d.ClientID != clientActor.ID {
		t.Fatal("demande must belong to the acting client")
	}
}

func TestDemandeCreateDepositNeverExceedsMaxPrice(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewDemandeService(store.NewDemandeStore(db), store.NewAuditStore(db), notify.LogNotifier{}, 1.5, false)

	d, err := svc.Create(context.Background(), clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.DepositAmount != 100 {
		t.Fatalf("deposit = %f, want capped at 100", d.DepositAmount)
	}
}

func TestDemandeCreateFreeTestZeroDeposit(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewDemandeService(store.NewDemandeStore(db), store.NewAuditStore(db), notify.LogNotifier{}, 0.30, true)

	d, err := svc.Create(context.Background(), clientActor, CreateDemandeInput{Name: "x", MaxPrice: 500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.DepositAmount != 0 {
		t.Fatalf("deposit = %f, want 0 in free-test mode", d.DepositAmount)
	}
}

func TestDemandeCreateValidation(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))

	_, err := svc.Create(context.Background(), clientActor, CreateDemandeInput{Name: "", MaxPrice: -3})
	var ve *lifecycle.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Violations["name"] == "" || ve.Violations["max_price"] == "" {
		t.Errorf("expected violations on name and max_price, got %v", ve.Violations)
	}
}

func TestDemandeCreateRequiresClientRole(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))

	seller := &gate.Actor{ID: 2, Roles: []gate.Role{gate.RoleSeller}}
	_, err := svc.Create(context.Background(), seller, CreateDemandeInput{Name: "x", MaxPrice: 50})
	if !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDemandeOwnershipReads(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))
	ctx := context.Background()

	d, err := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 50})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.ByPublicID(ctx, clientActor, d.PublicID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.ByPublicID(ctx, adminActor, d.PublicID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	other := &gate.Actor{ID: 3, Roles: []gate.Role{gate.RoleClient}}
	if _, err := svc.ByPublicID(ctx, other, d.PublicID); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("stranger read err = %v, want ErrUnauthorized", err)
	}
}

func TestDemandePayDeposit(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newDemandeService(db)
	ctx := context.Background()

	d, err := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	paid, err := svc.PayDeposit(ctx, clientActor, d.PublicID)
	if err != nil {
		t.Fatalf("pay deposit: %v", err)
	}
	if paid.Status != lifecycle.DemandeDepositPaid || paid.DepositPaidAt == nil {
		t.Fatalf("unexpected state: %+v", paid)
	}

	var payments []models.DepositPayment
	db.Where("demande_id = ?", paid.ID).Find(&payments)
	if len(payments) != 1 || payments[0].Type != "checkout" || payments[0].Amount != 30 {
		t.Fatalf("unexpected payment rows: %+v", payments)
	}

	audit, _ := store.NewAuditStore(db).ByEntity(ctx, "Demande", paid.PublicID)
	if len(audit) != 1 || audit[0].NewValue != lifecycle.DemandeDepositPaid {
		t.Fatalf("unexpected audit rows: %+v", audit)
	}
}

func TestDemandePayDepositFailedPaymentWriteLeavesStatusUnchanged(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newDemandeService(db)
	ctx := context.Background()

	d, err := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// A payment row that cannot be written must take the whole
	// transition down with it, not just the caller's response.
	if err := db.Migrator().DropTable(&models.DepositPayment{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := svc.PayDeposit(ctx, clientActor, d.PublicID); err == nil {
		t.Fatal("expected pay deposit to fail")
	}

	var reloaded models.Demande
	if err := db.Where("public_id = ?", d.PublicID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != lifecycle.DemandeAwaitingDeposit {
		t.Fatalf("status = %s, want AWAITING_DEPOSIT preserved", reloaded.Status)
	}
	if reloaded.DepositPaidAt != nil {
		t.Fatal("deposit_paid_at must not survive a failed payment write")
	}
}

func TestDemandePayDepositTwice(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))
	ctx := context.Background()

	d, _ := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	if _, err := svc.PayDeposit(ctx, clientActor, d.PublicID); err != nil {
		t.Fatalf("first pay: %v", err)
	}
	_, err := svc.PayDeposit(ctx, clientActor, d.PublicID)
	if !errors.Is(err, lifecycle.ErrGuardViolation) {
		t.Fatalf("second pay err = %v, want GuardViolation", err)
	}
}

func TestDemandePayDepositOnlyOwner(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))
	ctx := context.Background()

	d, _ := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	other := &gate.Actor{ID: 3, Roles: []gate.Role{gate.RoleClient}}
	if _, err := svc.PayDeposit(ctx, other, d.PublicID); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDemandeAdminFlow(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newDemandeService(db)
	ctx := context.Background()

	d, _ := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	if _, err := svc.PayDeposit(ctx, clientActor, d.PublicID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := svc.Accept(ctx, adminActor, d.PublicID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.BeginAnalysis(ctx, adminActor, d.PublicID); err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if _, err := svc.MarkProposalFound(ctx, adminActor, d.PublicID); err != nil {
		t.Fatalf("proposal: %v", err)
	}
	final, err := svc.Complete(ctx, adminActor, d.PublicID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if final.Status != lifecycle.DemandeCompleted {
		t.Fatalf("status = %s, want COMPLETED", final.Status)
	}

	audit, _ := store.NewAuditStore(db).ByEntity(ctx, "Demande", d.PublicID)
	if len(audit) != 5 {
		t.Fatalf("got %d audit rows, want 5", len(audit))
	}
}

func TestDemandeAdminTransitionsRequireAdmin(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))
	ctx := context.Background()

	d, _ := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	if _, err := svc.Accept(ctx, clientActor, d.PublicID); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDemandeRequestDeposit(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))
	ctx := context.Background()

	d, _ := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	svc.PayDeposit(ctx, clientActor, d.PublicID)
	svc.Accept(ctx, adminActor, d.PublicID)
	svc.BeginAnalysis(ctx, adminActor, d.PublicID)

	got, err := svc.RequestDeposit(ctx, adminActor, d.PublicID, "https://pay.example.com/s/1")
	if err != nil {
		t.Fatalf("request deposit: %v", err)
	}
	if got.Status != lifecycle.DemandeAwaitingDeposit || got.DepositPaymentURL == "" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestDemandeCancelPreservesPaymentColumns(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newDemandeService(db)
	ctx := context.Background()

	d, _ := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	if _, err := svc.PayDeposit(ctx, clientActor, d.PublicID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	cancelled, err := svc.Cancel(ctx, adminActor, d.PublicID, "introuvable au prix demandé")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != lifecycle.DemandeCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}

	var row models.Demande
	db.Where("public_id = ?", d.PublicID).First(&row)
	if row.CancelReason == "" {
		t.Fatal("cancel reason not persisted")
	}
	if row.DepositPaidAt == nil {
		t.Fatal("cancel must not erase deposit payment columns")
	}
	var payCount int64
	db.Model(&models.DepositPayment{}).Where("demande_id = ?", row.ID).Count(&payCount)
	if payCount != 1 {
		t.Fatal("payment rows must survive cancellation")
	}
}

func TestDemandeOverrideStatusAudited(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newDemandeService(db)
	ctx := context.Background()

	d, _ := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	got, err := svc.OverrideStatus(ctx, adminActor, d.PublicID, "PROPOSAL_FOUND")
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got.Status != lifecycle.DemandeProposalFound {
		t.Fatalf("status = %s, want PROPOSAL_FOUND", got.Status)
	}

	audit, _ := store.NewAuditStore(db).ByEntity(ctx, "Demande", d.PublicID)
	if len(audit) != 1 || audit[0].Action != "override" {
		t.Fatalf("override must always be audited, got %+v", audit)
	}
}

func TestDemandeOverrideUnknownStatus(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))
	ctx := context.Background()

	d, _ := svc.Create(ctx, clientActor, CreateDemandeInput{Name: "x", MaxPrice: 100})
	_, err := svc.OverrideStatus(ctx, adminActor, d.PublicID, "BANANA")
	if !errors.Is(err, lifecycle.ErrValidation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestDemandeNotFound(t *testing.T) {
	svc := newDemandeService(setupTestDB(t, t.Name()))
	_, err := svc.ByPublicID(context.Background(), adminActor, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
