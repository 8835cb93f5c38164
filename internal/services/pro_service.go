package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/lifecycle"
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/store"
	"github.com/downpricer/downpricer/internal/validation"
	"gorm.io/gorm"
)

// returnAlertWindow is how far ahead of a return deadline an article
// shows up in the dashboard alerts.
const returnAlertWindow = 3 * 24 * time.Hour

// ProService is the S-tier buy/resell book: personal inventory bought
// off-platform, tracked with a transaction ledger. Every operation is
// gated on the S-tier band and scoped to the acting user.
type ProService struct {
	DB *gorm.DB
}

func NewProService(db *gorm.DB) *ProService {
	return &ProService{DB: db}
}

type ProArticleInput struct {
	Name               string     `json:"name"`
	Photo              string     `json:"photo,omitempty"`
	Quantity           int        `json:"quantity"`
	PurchasePlatform   string     `json:"purchase_platform"`
	PurchaseDate       time.Time  `json:"purchase_date"`
	ReturnDeadline     *time.Time `json:"return_deadline,omitempty"`
	PaymentMethod      string     `json:"payment_method"`
	PurchasePrice      float64    `json:"purchase_price"`
	EstimatedSalePrice float64    `json:"estimated_sale_price"`
}

// Create registers a purchase in the book and writes the matching
// "achat" ledger line (negative amount).
func (s *ProService) Create(ctx context.Context, actor *gate.Actor, in ProArticleInput) (*models.ProArticle, error) {
	if err := gate.Authorize(actor, gate.RequireSTier()); err != nil {
		return nil, err
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("purchase_platform", in.PurchasePlatform, v)
	validation.Required("payment_method", in.PaymentMethod, v)
	validation.PositiveFloat("purchase_price", in.PurchasePrice, v)
	validation.PositiveFloat("estimated_sale_price", in.EstimatedSalePrice, v)
	validation.RangeFloat("quantity", float64(in.Quantity), 1, 1000, v)
	if in.PurchaseDate.IsZero() {
		v["purchase_date"] = "required"
	}
	if !v.Empty() {
		return nil, &lifecycle.ValidationError{Violations: v}
	}

	article := &models.ProArticle{
		UserID:             actor.ID,
		Name:               in.Name,
		Photo:              in.Photo,
		Quantity:           in.Quantity,
		PurchasePlatform:   in.PurchasePlatform,
		PurchaseDate:       in.PurchaseDate,
		ReturnDeadline:     in.ReturnDeadline,
		PaymentMethod:      in.PaymentMethod,
		PurchasePrice:      in.PurchasePrice,
		EstimatedSalePrice: in.EstimatedSalePrice,
		Status:             models.ProStatusForSale,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(article).Error; err != nil {
			return err
		}
		return tx.Create(&models.ProTransaction{
			UserID:      actor.ID,
			Type:        "achat",
			Amount:      -in.PurchasePrice,
			Description: fmt.Sprintf("Achat: %s", in.Name),
			ArticleID:   article.PublicID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// List returns the actor's articles without their photos. Photos are
// heavy payloads fetched one by one through Photo.
func (s *ProService) List(ctx context.Context, actor *gate.Actor) ([]models.ProArticle, error) {
	if err := gate.Authorize(actor, gate.RequireSTier()); err != nil {
		return nil, err
	}
	var articles []models.ProArticle
	err := s.DB.WithContext(ctx).
		Omit("photo").
		Where("user_id = ?", actor.ID).
		Order("created_at DESC").
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// ByPublicID returns one of the actor's articles, photo included.
func (s *ProService) ByPublicID(ctx context.Context, actor *gate.Actor, publicID string) (*models.ProArticle, error) {
	if err := gate.Authorize(actor, gate.RequireSTier()); err != nil {
		return nil, err
	}
	var article models.ProArticle
	err := s.DB.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, actor.ID).
		First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// Photo returns just the article's photo. Not found when the article
// has none.
func (s *ProService) Photo(ctx context.Context, actor *gate.Actor, publicID string) (string, error) {
	article, err := s.ByPublicID(ctx, actor, publicID)
	if err != nil {
		return "", err
	}
	if article.Photo == "" {
		return "", store.ErrNotFound
	}
	return article.Photo, nil
}

// ProArticleUpdate is a field mask; nil fields are left untouched.
type ProArticleUpdate struct {
	Name               *string    `json:"name,omitempty"`
	Photo              *string    `json:"photo,omitempty"`
	Quantity           *int       `json:"quantity,omitempty"`
	PurchasePlatform   *string    `json:"purchase_platform,omitempty"`
	PurchaseDate       *time.Time `json:"purchase_date,omitempty"`
	ReturnDeadline     *time.Time `json:"return_deadline,omitempty"`
	PaymentMethod      *string    `json:"payment_method,omitempty"`
	PurchasePrice      *float64   `json:"purchase_price,omitempty"`
	EstimatedSalePrice *float64   `json:"estimated_sale_price,omitempty"`
	ActualSalePrice    *float64   `json:"actual_sale_price,omitempty"`
	SalePlatform       *string    `json:"sale_platform,omitempty"`
	Status             *string    `json:"status,omitempty"`
}

// Update applies the field mask. Marking an article sold with an actual
// sale price writes the matching "vente" ledger line once.
func (s *ProService) Update(ctx context.Context, actor *gate.Actor, publicID string, in ProArticleUpdate) (*models.ProArticle, error) {
	article, err := s.ByPublicID(ctx, actor, publicID)
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		switch *in.Status {
		case models.ProStatusForSale, models.ProStatusSold, models.ProStatusToReturn, models.ProStatusLost:
		default:
			return nil, &lifecycle.ValidationError{Violations: validation.Violations{"status": "unknown_status"}}
		}
	}
	v := validation.Violations{}
	if in.PurchasePrice != nil {
		validation.PositiveFloat("purchase_price", *in.PurchasePrice, v)
	}
	if in.EstimatedSalePrice != nil {
		validation.PositiveFloat("estimated_sale_price", *in.EstimatedSalePrice, v)
	}
	if in.Quantity != nil {
		validation.RangeFloat("quantity", float64(*in.Quantity), 1, 1000, v)
	}
	if !v.Empty() {
		return nil, &lifecycle.ValidationError{Violations: v}
	}

	justSold := in.Status != nil && *in.Status == models.ProStatusSold &&
		article.Status != models.ProStatusSold && in.ActualSalePrice != nil

	updates := proUpdateMap(in)
	if len(updates) == 0 {
		return article, nil
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(article).Updates(updates).Error; err != nil {
			return err
		}
		if justSold {
			return tx.Create(&models.ProTransaction{
				UserID:      actor.ID,
				Type:        "vente",
				Amount:      *in.ActualSalePrice,
				Description: fmt.Sprintf("Vente: %s", article.Name),
				ArticleID:   article.PublicID,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ByPublicID(ctx, actor, publicID)
}

func proUpdateMap(in ProArticleUpdate) map[string]any {
	m := map[string]any{}
	if in.Name != nil {
		m["name"] = *in.Name
	}
	if in.Photo != nil {
		m["photo"] = *in.Photo
	}
	if in.Quantity != nil {
		m["quantity"] = *in.Quantity
	}
	if in.PurchasePlatform != nil {
		m["purchase_platform"] = *in.PurchasePlatform
	}
	if in.PurchaseDate != nil {
		m["purchase_date"] = *in.PurchaseDate
	}
	if in.ReturnDeadline != nil {
		m["return_deadline"] = *in.ReturnDeadline
	}
	if in.PaymentMethod != nil {
		m["payment_method"] = *in.PaymentMethod
	}
	if in.PurchasePrice != nil {
		m["purchase_price"] = *in.PurchasePrice
	}
	if in.EstimatedSalePrice != nil {
		m["estimated_sale_price"] = *in.EstimatedSalePrice
	}
	if in.ActualSalePrice != nil {
		m["actual_sale_price"] = *in.ActualSalePrice
	}
	if in.SalePlatform != nil {
		m["sale_platform"] = *in.SalePlatform
	}
	if in.Status != nil {
		m["status"] = *in.Status
	}
	return m
}

// Delete removes an article from the book. Ledger lines stay.
func (s *ProService) Delete(ctx context.Context, actor *gate.Actor, publicID string) error {
	if err := gate.Authorize(actor, gate.RequireSTier()); err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, actor.ID).
		Delete(&models.ProArticle{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Transactions returns the actor's ledger, newest first.
func (s *ProService) Transactions(ctx context.Context, actor *gate.Actor) ([]models.ProTransaction, error) {
	if err := gate.Authorize(actor, gate.RequireSTier()); err != nil {
		return nil, err
	}
	var txs []models.ProTransaction
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", actor.ID).
		Order("created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Alerts returns unsold articles whose return deadline falls within the
// next three days.
func (s *ProService) Alerts(ctx context.Context, actor *gate.Actor) ([]models.ProArticle, error) {
	if err := gate.Authorize(actor, gate.RequireSTier()); err != nil {
		return nil, err
	}
	now := time.Now()
	var articles []models.ProArticle
	err := s.DB.WithContext(ctx).
		Omit("photo").
		Where("user_id = ? AND status <> ? AND return_deadline >= ? AND return_deadline <= ?",
			actor.ID, models.ProStatusSold, now, now.Add(returnAlertWindow)).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// ProStats aggregates the book for the dashboard.
type ProStats struct {
	TotalArticles    int     `json:"total_articles"`
	ArticlesForSale  int     `json:"articles_for_sale"`
	ArticlesSold     int     `json:"articles_sold"`
	ArticlesToReturn int     `json:"articles_to_return"`
	ArticlesLost     int     `json:"articles_lost"`
	TotalInvested    float64 `json:"total_invested"`
	TotalEarned      float64 `json:"total_earned"`
	PotentialRevenue float64 `json:"potential_revenue"`
	CurrentMargin    float64 `json:"current_margin"`
}

// Stats computes the dashboard aggregates over the actor's whole book.
func (s *ProService) Stats(ctx context.Context, actor *gate.Actor) (*ProStats, error) {
	if err := gate.Authorize(actor, gate.RequireSTier()); err != nil {
		return nil, err
	}
	var articles []models.ProArticle
	err := s.DB.WithContext(ctx).
		Omit("photo").
		Where("user_id = ?", actor.ID).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	stats := &ProStats{TotalArticles: len(articles)}
	for _, a := range articles {
		switch a.Status {
		case models.ProStatusForSale:
			stats.ArticlesForSale++
			stats.PotentialRevenue += a.EstimatedSalePrice
		case models.ProStatusSold:
			stats.ArticlesSold++
		case models.ProStatusToReturn:
			stats.ArticlesToReturn++
		case models.ProStatusLost:
			stats.ArticlesLost++
		}
		stats.TotalInvested += a.PurchasePrice
		if a.ActualSalePrice != nil {
			stats.TotalEarned += *a.ActualSalePrice
		}
	}
	stats.CurrentMargin = stats.TotalEarned - stats.TotalInvested
	return stats, nil
}
