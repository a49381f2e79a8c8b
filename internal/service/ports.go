package service

import (
	"context"

	"listinghub/internal/models"
)

// UserStore is the credential store. Implementations return
// repository.ErrUserNotFound and repository.ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, patch models.ProfilePatch) (models.User, error)
}

// ListingStore is the listing store. Implementations return
// repository.ErrListingNotFound.
type ListingStore interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id int64) (models.Listing, error)
	List(ctx context.Context, q models.ListingQuery) ([]models.Listing, int, error)
	Update(ctx context.Context, id int64, patch models.ListingPatch) (models.Listing, error)
	Delete(ctx context.Context, id int64) error
}

type TaskQueue interface {
	Enqueue(ctx context.Context, taskType string, fields map[string]any) error
}
