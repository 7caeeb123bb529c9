package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service coordinates profile reads and the save path. Saving the profile and
// moving the numbering sequences happen in one transaction so a rejected
// sequence override leaves the profile untouched.
type Service struct {
	pool   *pgxpool.Pool
	cache  *Cache
	logger *slog.Logger
}

// NewService builds Service.
func NewService(pool *pgxpool.Pool, cache *Cache, logger *slog.Logger) *Service {
	return &Service{pool: pool, cache: cache, logger: logger}
}

// ProfileView is the read model returned to callers, including the current
// sequence states.
type ProfileView struct {
	Profile  Profile             `json:"profile"`
	Invoice  *numbering.Sequence `json:"invoice,omitempty"`
	CashBill *numbering.Sequence `json:"cash_bill,omitempty"`
}

// Get returns the profile with sequence states, preferring the cache for the
// profile body.
func (s *Service) Get(ctx context.Context, orgID int64) (ProfileView, error) {
	view := ProfileView{}

	if cached, ok := s.cache.Get(ctx, orgID); ok {
		view.Profile = cached
	} else {
		profile, err := NewRepository(s.pool).Get(ctx, orgID)
		if err != nil {
			return ProfileView{}, err
		}
		view.Profile = profile
		if err := s.cache.Set(ctx, profile); err != nil && s.logger != nil {
			s.logger.Warn("cache profile", slog.Any("error", err))
		}
	}

	store := numbering.NewStore(s.pool)
	if seq, err := store.Get(ctx, orgID, numbering.KindInvoice); err == nil {
		view.Invoice = &seq
	} else if !errors.Is(err, shared.ErrNotFound) {
		return ProfileView{}, err
	}
	if seq, err := store.Get(ctx, orgID, numbering.KindCashBill); err == nil {
		view.CashBill = &seq
	} else if !errors.Is(err, shared.ErrNotFound) {
		return ProfileView{}, err
	}

	return view, nil
}

// Save creates or updates the profile and applies any sequence overrides.
// Sequence numbers may only move forward; a backward move aborts the whole
// save with shared.ErrSequenceRegression.
func (s *Service) Save(ctx context.Context, orgID, userID int64, input SaveInput) (Profile, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Profile{}, fmt.Errorf("%w: company name is required", shared.ErrValidation)
	}
	for _, seq := range []*SequenceInput{input.Invoice, input.CashBill} {
		if seq != nil && seq.NextNumber != nil && *seq.NextNumber < 1 {
			return Profile{}, fmt.Errorf("%w: next number must be >= 1", shared.ErrValidation)
		}
	}

	profile := Profile{
		OrgID:         orgID,
		Name:          strings.TrimSpace(input.Name),
		Address:       strings.TrimSpace(input.Address),
		GSTIN:         strings.TrimSpace(input.GSTIN),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:         strings.TrimSpace(input.Phone),
		Website:       strings.TrimSpace(input.Website),
		LogoURL:       strings.TrimSpace(input.LogoURL),
		Bank:          input.Bank,
		InvoiceFooter: strings.TrimSpace(input.InvoiceFooter),
		InvoiceTerms:  strings.TrimSpace(input.InvoiceTerms),
		CreatedBy:     userID,
	}

	var saved Profile
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		repo := NewRepository(tx)
		store := numbering.NewStore(tx)

		var err error
		saved, err = repo.Upsert(ctx, profile)
		if err != nil {
			return err
		}

		if err := applySequence(ctx, store, orgID, numbering.KindInvoice, input.Invoice); err != nil {
			return err
		}
		return applySequence(ctx, store, orgID, numbering.KindCashBill, input.CashBill)
	})
	if err != nil {
		return Profile{}, err
	}

	if err := s.cache.Invalidate(ctx, orgID); err != nil && s.logger != nil {
		s.logger.Warn("invalidate profile cache", slog.Any("error", err))
	}
	return saved, nil
}

// applySequence merges the override with the current sequence state and
// writes it through the store's forward-only guard.
func applySequence(ctx context.Context, store *numbering.Store, orgID int64, kind numbering.Kind, input *SequenceInput) error {
	if input == nil {
		return nil
	}

	prefix := strings.TrimSpace(input.Prefix)
	next := int64(0)

	current, err := store.Get(ctx, orgID, kind)
	switch {
	case err == nil:
		if prefix == "" {
			prefix = current.Prefix
		}
		next = current.NextNumber
	case errors.Is(err, shared.ErrNotFound):
		// First provisioning for this kind.
	default:
		return err
	}

	if input.NextNumber != nil {
		next = *input.NextNumber
	}
	if next == 0 {
		next = 1
	}

	return store.Set(ctx, orgID, kind, prefix, next)
}
