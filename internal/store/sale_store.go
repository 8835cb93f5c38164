package store

import (
	"context"
	"errors"

	"github.com/downpricer/downpricer/internal/models"
	"gorm.io/gorm"
)

type SaleStore struct {
	DB *gorm.DB
}

func NewSaleStore(db *gorm.DB) *SaleStore { return &SaleStore{DB: db} }

func (s *SaleStore) Create(ctx context.Context, sale *models.Sale) error {
	return s.DB.WithContext(ctx).Create(sale).Error
}

func (s *SaleStore) ByPublicID(ctx context.Context, publicID string) (*models.Sale, error) {
	var sale models.Sale
	err := s.DB.WithContext(ctx).
		Preload("Article").Preload("PaymentProof").
		Where("public_id = ?", publicID).First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *SaleStore) BySeller(ctx context.Context, sellerID uint) ([]models.Sale, error) {
	var out []models.Sale
	err := s.DB.WithContext(ctx).
		Preload("Article").Preload("PaymentProof").
		Where("seller_id = ?", sellerID).Order("id desc").Find(&out).Error
	return out, err
}

func (s *SaleStore) List(ctx context.Context) ([]models.Sale, error) {
	var out []models.Sale
	err := s.DB.WithContext(ctx).
		Preload("Article").Preload("PaymentProof").
		Order("id desc").Find(&out).Error
	return out, err
}

// HasOpenSale reports whether the article already has a non-terminal sale.
func (s *SaleStore) HasOpenSale(ctx context.Context, articleID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Sale{}).
		Where("article_id = ? AND status NOT IN ?", articleID,
			[]string{"COMPLETED", "REJECTED", "CANCELLED"}).
		Count(&count).Error
	return count > 0, err
}

// ApplyTransition persists a validated transition with a compare-and-swap
// on the pre-state. When the transition produced a payment proof, the
// proof row is written in the same transaction so a lost race leaves no
// orphan evidence.
func (s *SaleStore) ApplyTransition(ctx context.Context, sale *models.Sale, fromStatus string, updates map[string]any) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Sale{}).
			Where("id = ? AND status = ?", sale.ID, fromStatus).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &StaleStateError{Entity: "sale", PublicID: sale.PublicID, Expected: fromStatus}
		}
		if sale.PaymentProof != nil && sale.PaymentProof.ID == 0 {
			sale.PaymentProof.SaleID = sale.ID
			if err := tx.Create(sale.PaymentProof).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ArticleByPublicID loads a listing for sale declaration.
func (s *SaleStore) ArticleByPublicID(ctx context.Context, publicID string) (*models.Article, error) {
	var a models.Article
	err := s.DB.WithContext(ctx).Where("public_id = ?", publicID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
