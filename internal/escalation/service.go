// Package escalation keeps disaster response tiers in line with the configured
// thresholds and carries out the side effects of raising a tier.
package escalation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/notification"
	"relief-ops-backend/internal/store"
	"relief-ops-backend/internal/tier"
)

// Store is the persistence the service depends on.
type Store interface {
	GetDisaster(ctx context.Context, id int64) (*model.Disaster, error)
	ListOpenDisasters(ctx context.Context) ([]model.Disaster, error)
	SetDisasterTier(ctx context.Context, id int64, tier int) error
	RaiseDisasterTier(ctx context.Context, id int64, tier int) (bool, error)
	ActivateAgenciesForTier(ctx context.Context, disasterID int64, tier int, now time.Time) ([]model.AgencyActivation, error)
}

// Dispatcher queues push notifications.
type Dispatcher interface {
	Dispatch(job notification.Job) bool
}

// Outcome describes what an evaluation or override did to a disaster.
type Outcome struct {
	DisasterID   int64                    `json:"disaster_id"`
	PreviousTier int                      `json:"previous_tier"`
	CurrentTier  int                      `json:"current_tier"`
	ComputedTier int                      `json:"computed_tier"`
	Reasons      []string                 `json:"reasons"`
	Escalated    bool                     `json:"escalated"`
	Activated    []model.AgencyActivation `json:"activated_agencies"`
	Notified     bool                     `json:"notified"`
}

// Service evaluates tiers on demand and, when enabled, on a timer.
type Service struct {
	cfg        *config.Config
	store      Store
	dispatcher Dispatcher
	log        *zap.Logger
	now        func() time.Time
	onEscalate []func()
}

// NewService creates a new escalation service.
func NewService(cfg *config.Config, s Store, dispatcher Dispatcher, log *zap.Logger) *Service {
	return &Service{
		cfg:        cfg,
		store:      s,
		dispatcher: dispatcher,
		log:        log.Named("escalation"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Thresholds returns the configured tier thresholds.
func (s *Service) Thresholds() []config.TierThreshold {
	return s.cfg.Tiers
}

// Assess reports the current and computed tier without changing anything.
func (s *Service) Assess(ctx context.Context, id int64) (*Outcome, error) {
	d, err := s.store.GetDisaster(ctx, id)
	if err != nil {
		return nil, err
	}
	res := tier.Evaluate(s.cfg.Tiers, d)
	return &Outcome{
		DisasterID:   d.ID,
		PreviousTier: d.Tier,
		CurrentTier:  d.Tier,
		ComputedTier: res.Tier,
		Reasons:      res.Reasons,
		Activated:    []model.AgencyActivation{},
	}, nil
}

// Evaluate recomputes the disaster's tier and escalates when the computed tier
// is higher than the current one. Tiers are never lowered automatically.
func (s *Service) Evaluate(ctx context.Context, id int64) (*Outcome, error) {
	d, err := s.store.GetDisaster(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, d)
}

func (s *Service) evaluate(ctx context.Context, d *model.Disaster) (*Outcome, error) {
	res := tier.Evaluate(s.cfg.Tiers, d)
	out := &Outcome{
		DisasterID:   d.ID,
		PreviousTier: d.Tier,
		CurrentTier:  d.Tier,
		ComputedTier: res.Tier,
		Reasons:      res.Reasons,
		Activated:    []model.AgencyActivation{},
	}
	if !d.IsOpen() || res.Tier <= d.Tier {
		return out, nil
	}
	if err := s.escalate(ctx, d, res.Tier, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Override sets the tier by hand. Lowering the tier leaves existing activations in place.
func (s *Service) Override(ctx context.Context, id int64, newTier int) (*Outcome, error) {
	if !tier.Valid(newTier) {
		return nil, fmt.Errorf("%w: tier must be between %d and %d", store.ErrInvalid, model.MinTier, model.MaxTier)
	}
	d, err := s.store.GetDisaster(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsOpen() {
		return nil, fmt.Errorf("%w: disaster %d is resolved", store.ErrConflict, id)
	}

	res := tier.Evaluate(s.cfg.Tiers, d)
	out := &Outcome{
		DisasterID:   d.ID,
		PreviousTier: d.Tier,
		CurrentTier:  d.Tier,
		ComputedTier: res.Tier,
		Reasons:      []string{"manual override"},
		Activated:    []model.AgencyActivation{},
	}

	switch {
	case newTier > d.Tier:
		if err := s.escalate(ctx, d, newTier, out); err != nil {
			return nil, err
		}
	case newTier < d.Tier:
		if err := s.store.SetDisasterTier(ctx, d.ID, newTier); err != nil {
			return nil, err
		}
		out.CurrentTier = newTier
		s.log.Info("tier lowered by override",
			zap.Int64("disaster_id", d.ID), zap.Int("from", d.Tier), zap.Int("to", newTier))
	}
	return out, nil
}

// escalate persists the new tier, activates agencies and queues a notification.
// Nothing happens when the stored tier is already at or above newTier, which is
// the case when an override lands after d was read.
func (s *Service) escalate(ctx context.Context, d *model.Disaster, newTier int, out *Outcome) error {
	raised, err := s.store.RaiseDisasterTier(ctx, d.ID, newTier)
	if err != nil {
		return fmt.Errorf("persisting tier: %w", err)
	}
	if !raised {
		current, err := s.store.GetDisaster(ctx, d.ID)
		if err != nil {
			return err
		}
		out.CurrentTier = current.Tier
		s.log.Debug("tier already at or above computed tier",
			zap.Int64("disaster_id", d.ID), zap.Int("stored", current.Tier), zap.Int("computed", newTier))
		return nil
	}
	out.CurrentTier = newTier
	out.Escalated = true

	activated, err := s.store.ActivateAgenciesForTier(ctx, d.ID, newTier, s.now())
	if err != nil {
		return fmt.Errorf("activating agencies: %w", err)
	}
	if activated != nil {
		out.Activated = activated
	}

	if s.dispatcher != nil {
		out.Notified = s.dispatcher.Dispatch(notification.Job{
			DisasterID:   d.ID,
			PreviousTier: d.Tier,
			Tier:         newTier,
		})
	}

	s.log.Info("disaster escalated",
		zap.Int64("disaster_id", d.ID),
		zap.Int("from", d.Tier),
		zap.Int("to", newTier),
		zap.Int("agencies_activated", len(out.Activated)),
		zap.Bool("notified", out.Notified))
	return nil
}

// OnEscalate registers fn to run after a monitor cycle that escalated at least
// one disaster. Register hooks before calling Run.
func (s *Service) OnEscalate(fn func()) {
	s.onEscalate = append(s.onEscalate, fn)
}

// Run starts the periodic evaluation loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Escalation.Enabled {
		s.log.Info("escalation monitor is disabled, not starting")
		return
	}
	s.log.Info("starting escalation monitor", zap.Duration("interval", s.cfg.Escalation.Interval))

	s.EvaluateOnce(ctx)

	timer := time.NewTimer(s.cfg.Escalation.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("escalation monitor shutting down")
			return
		case <-timer.C:
			s.EvaluateOnce(ctx)
			timer.Reset(s.cfg.Escalation.Interval)
		}
	}
}

// EvaluateOnce evaluates every open disaster and returns how many were escalated.
func (s *Service) EvaluateOnce(ctx context.Context) int {
	disasters, err := s.store.ListOpenDisasters(ctx)
	if err != nil {
		s.log.Error("listing open disasters failed", zap.Error(err))
		return 0
	}

	escalated := 0
	for i := range disasters {
		if ctx.Err() != nil {
			break
		}
		out, err := s.evaluate(ctx, &disasters[i])
		if err != nil {
			s.log.Error("evaluating disaster failed", zap.Int64("disaster_id", disasters[i].ID), zap.Error(err))
			continue
		}
		if out.Escalated {
			escalated++
		}
	}
	s.log.Debug("escalation cycle finished", zap.Int("disasters", len(disasters)), zap.Int("escalated", escalated))
	if escalated > 0 {
		for _, fn := range s.onEscalate {
			fn()
		}
	}
	return escalated
}
