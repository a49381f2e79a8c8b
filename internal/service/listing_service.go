package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"listinghub/internal/config"
	"listinghub/internal/models"
	"listinghub/internal/repository"
	"listinghub/internal/security"
)

// ListingInput is a decoded create request. Numeric fields are nil when absent.
type ListingInput struct {
	Title       string
	Description *string
	Category    string
	Price       *float64
	PriceType   string
	Address     string
	Latitude    *float64
	Longitude   *float64
	Features    map[string]any
	ExpiresAt   *time.Time
}

type ListingService struct {
	listings ListingStore
	users    UserStore
	cfg      config.ListingsConfig
	now      func() time.Time
	log      zerolog.Logger
}

func NewListingService(listings ListingStore, users UserStore, cfg config.ListingsConfig, log zerolog.Logger) *ListingService {
	return &ListingService{
		listings: listings,
		users:    users,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// List returns one page of listings, newest first.
func (s *ListingService) List(ctx context.Context, req PageRequest) (models.ListingPage, error) {
	return listPage(ctx, s.listings, s.cfg, req, s.cfg.HideExpired, s.now())
}

func (s *ListingService) Get(ctx context.Context, id int64) (models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return models.Listing{}, mapListingErr(err)
	}
	return listing, nil
}

// Create stores a listing owned by the actor. Ownership never comes from the input.
func (s *ListingService) Create(ctx context.Context, actor security.Identity, in ListingInput) (models.Listing, error) {
	if err := validateListingInput(in); err != nil {
		return models.Listing{}, err
	}

	if _, err := s.users.GetByID(ctx, actor.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Listing{}, notFound("user not found")
		}
		return models.Listing{}, fmt.Errorf("load owner: %w", err)
	}

	features := in.Features
	if features == nil {
		features = map[string]any{}
	}
	listing := models.Listing{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Price:       *in.Price,
		PriceType:   strings.TrimSpace(in.PriceType),
		Address:     strings.TrimSpace(in.Address),
		Latitude:    *in.Latitude,
		Longitude:   *in.Longitude,
		Features:    features,
		ExpiresAt:   in.ExpiresAt,
		CreatedBy:   actor.UserID,
	}
	if err := s.listings.Create(ctx, &listing); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return models.Listing{}, notFound("user not found")
		}
		return models.Listing{}, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info().Int64("listing_id", listing.ID).Int64("user_id", actor.UserID).Msg("listing created")
	return listing, nil
}

// Update applies an allow-listed patch when the actor owns the listing or is an admin.
func (s *ListingService) Update(ctx context.Context, actor security.Identity, id int64, patch models.ListingPatch) (models.Listing, error) {
	current, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return models.Listing{}, mapListingErr(err)
	}
	if !security.CanMutate(actor, current) {
		return models.Listing{}, forbidden("not allowed to modify this listing")
	}

	patch.CreatedBy = nil
	if err := validateListingPatch(patch); err != nil {
		return models.Listing{}, err
	}

	updated, err := s.listings.Update(ctx, id, patch)
	if err != nil {
		return models.Listing{}, mapListingErr(err)
	}
	s.log.Info().Int64("listing_id", id).Int64("user_id", actor.UserID).Msg("listing updated")
	return updated, nil
}

func (s *ListingService) Delete(ctx context.Context, actor security.Identity, id int64) error {
	current, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return mapListingErr(err)
	}
	if !security.CanMutate(actor, current) {
		return forbidden("not allowed to delete this listing")
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		return mapListingErr(err)
	}
	s.log.Info().Int64("listing_id", id).Int64("user_id", actor.UserID).Msg("listing deleted")
	return nil
}

func listPage(ctx context.Context, store ListingStore, cfg config.ListingsConfig, req PageRequest, hideExpired bool, now time.Time) (models.ListingPage, error) {
	page, limit, offset := req.normalize(cfg)
	listings, total, err := store.List(ctx, models.ListingQuery{
		Limit:       limit,
		Offset:      offset,
		HideExpired: hideExpired,
		Now:         now,
	})
	if err != nil {
		return models.ListingPage{}, fmt.Errorf("list listings: %w", err)
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return models.ListingPage{
		Listings:   listings,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages(total, limit),
	}, nil
}

func mapListingErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrListingNotFound):
		return notFound("listing not found")
	case errors.Is(err, repository.ErrMissingReference):
		return validationError("referenced user does not exist")
	}
	return err
}

func validateListingInput(in ListingInput) error {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Category) == "" {
		missing = append(missing, "category")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if strings.TrimSpace(in.PriceType) == "" {
		missing = append(missing, "price_type")
	}
	if strings.TrimSpace(in.Address) == "" {
		missing = append(missing, "address")
	}
	if in.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if in.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		return validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	return checkNumbers(in.Price, in.Latitude, in.Longitude)
}

func validateListingPatch(p models.ListingPatch) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"title", p.Title},
		{"category", p.Category},
		{"price_type", p.PriceType},
		{"address", p.Address},
	}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return validationError("%s must not be empty", f.name)
		}
	}
	return checkNumbers(p.Price, p.Latitude, p.Longitude)
}

func checkNumbers(price, lat, lon *float64) error {
	if price != nil && (!finite(*price) || *price <= 0) {
		return validationError("price must be a positive number")
	}
	if lat != nil && (!finite(*lat) || *lat < -90 || *lat > 90) {
		return validationError("latitude must be between -90 and 90")
	}
	if lon != nil && (!finite(*lon) || *lon < -180 || *lon > 180) {
		return validationError("longitude must be between -180 and 180")
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
