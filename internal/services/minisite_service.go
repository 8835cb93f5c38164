package services

import (
	"context"
	"errors"
	"strings"

	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/lifecycle"
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/plan"
	"github.com/downpricer/downpricer/internal/validation"
	"gorm.io/gorm"
)

// MinisiteService provisions the subscription-gated storefront. Creation
// requires a resolvable plan tier; one minisite per user.
type MinisiteService struct {
	DB   *gorm.DB
	Subs plan.SubscriptionSource
}

func NewMinisiteService(db *gorm.DB, subs plan.SubscriptionSource) *MinisiteService {
	return &MinisiteService{DB: db, Subs: subs}
}

// Mine returns the actor's minisite, or nil when none exists yet.
func (s *MinisiteService) Mine(ctx context.Context, actor *gate.Actor) (*models.Minisite, error) {
	if err := gate.Authorize(actor, gate.RequireAuthenticated()); err != nil {
		return nil, err
	}
	var m models.Minisite
	err := s.DB.WithContext(ctx).Where("user_id = ?", actor.ID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type CreateMinisiteInput struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	PlanHint string `json:"plan"`
}

// Create provisions the actor's minisite on the tier resolved from the
// hint, the actor's roles, and the stored subscription.
func (s *MinisiteService) Create(ctx context.Context, actor *gate.Actor, in CreateMinisiteInput) (*models.Minisite, error) {
	if err := gate.Authorize(actor, gate.RequireAuthenticated()); err != nil {
		return nil, err
	}
	planID, ok, err := plan.ResolveFor(ctx, s.Subs, actor, in.PlanHint)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &gate.AuthorizationError{Requirement: "active_plan", Authenticated: true}
	}

	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("slug", in.Slug, v)
	if !v.Empty() {
		return nil, &lifecycle.ValidationError{Violations: v}
	}

	existing, err := s.Mine(ctx, actor)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &lifecycle.ValidationError{Violations: validation.Violations{"minisite": "already_exists"}}
	}

	m := &models.Minisite{
		UserID: actor.ID,
		Name:   in.Name,
		Slug:   strings.ToLower(strings.TrimSpace(in.Slug)),
		PlanID: string(planID),
	}
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// Entry resolves the route a user landing on the minisite section should
// see: the dashboard when a minisite exists, creation when a plan is
// available, the pricing page otherwise.
func (s *MinisiteService) Entry(ctx context.Context, actor *gate.Actor) (string, error) {
	m, err := s.Mine(ctx, actor)
	if err != nil {
		return "", err
	}
	if m != nil {
		return "/minisite/dashboard", nil
	}
	if planID, ok := plan.ActorPlanRole(actor); ok {
		return "/minisite/create?plan=" + string(planID), nil
	}
	return "/minisite", nil
}
