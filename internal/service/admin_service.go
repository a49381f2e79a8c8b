package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"listinghub/internal/config"
	"listinghub/internal/models"
	"listinghub/internal/repository"
	"listinghub/internal/security"
)

// AdminService exposes unrestricted listing moderation. Callers are expected to
// have passed the admin role gate already.
type AdminService struct {
	listings ListingStore
	users    UserStore
	cfg      config.ListingsConfig
	now      func() time.Time
	log      zerolog.Logger
}

func NewAdminService(listings ListingStore, users UserStore, cfg config.ListingsConfig, log zerolog.Logger) *AdminService {
	return &AdminService{
		listings: listings,
		users:    users,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// ListListings includes expired listings regardless of the public filter.
func (s *AdminService) ListListings(ctx context.Context, req PageRequest) (models.ListingPage, error) {
	return listPage(ctx, s.listings, s.cfg, req, false, s.now())
}

// UpdateListing applies the patch to any listing. CreatedBy may be reassigned to
// an existing user.
func (s *AdminService) UpdateListing(ctx context.Context, actor security.Identity, id int64, patch models.ListingPatch) (models.Listing, error) {
	if !actor.IsAdmin() {
		return models.Listing{}, forbidden("admin role required")
	}
	if _, err := s.listings.GetByID(ctx, id); err != nil {
		return models.Listing{}, mapListingErr(err)
	}
	if err := validateListingPatch(patch); err != nil {
		return models.Listing{}, err
	}
	if patch.CreatedBy != nil {
		if _, err := s.users.GetByID(ctx, *patch.CreatedBy); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return models.Listing{}, validationError("created_by refers to an unknown user")
			}
			return models.Listing{}, fmt.Errorf("load new owner: %w", err)
		}
	}

	updated, err := s.listings.Update(ctx, id, patch)
	if err != nil {
		return models.Listing{}, mapListingErr(err)
	}
	s.log.Info().Int64("listing_id", id).Int64("admin_id", actor.UserID).Msg("listing updated by admin")
	return updated, nil
}

func (s *AdminService) DeleteListing(ctx context.Context, actor security.Identity, id int64) error {
	if !actor.IsAdmin() {
		return forbidden("admin role required")
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		return mapListingErr(err)
	}
	s.log.Info().Int64("listing_id", id).Int64("admin_id", actor.UserID).Msg("listing deleted by admin")
	return nil
}
