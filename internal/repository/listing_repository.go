package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"listinghub/internal/models"
)

const listingColumns = `id, title, description, category, price, price_type, address, latitude, longitude,
	COALESCE(features, '{}'::jsonb), expires_at, created_by, created_at, updated_at`

type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

// Create inserts the listing and fills the generated id and timestamps.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	const query = `
		INSERT INTO listings (
			title, description, category, price, price_type, address, latitude, longitude,
			features, expires_at, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, NOW(), NOW()
		)
		RETURNING id, created_at, updated_at
	`

	row := r.pool.QueryRow(ctx, query,
		listing.Title,
		listing.Description,
		listing.Category,
		listing.Price,
		listing.PriceType,
		listing.Address,
		listing.Latitude,
		listing.Longitude,
		listing.Features,
		listing.ExpiresAt,
		listing.CreatedBy,
	)
	if err := row.Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt); err != nil {
		return translate(err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return scanListing(r.pool.QueryRow(ctx, query, id))
}

// List returns one page ordered newest first together with the total row count.
func (r *ListingRepository) List(ctx context.Context, q models.ListingQuery) ([]models.Listing, int, error) {
	where := ""
	args := []any{}
	if q.HideExpired {
		args = append(args, q.Now)
		where = ` WHERE (expires_at IS NULL OR expires_at >= $1)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM listings%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		listingColumns, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	listings, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// ListExpired returns listings whose expiry lies before now, oldest expiry first.
func (r *ListingRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2`
	return r.query(ctx, query, now, limit)
}

// Update writes only the fields present in the patch and returns the stored row.
func (r *ListingRepository) Update(ctx context.Context, id int64, patch models.ListingPatch) (models.Listing, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	set := newSetBuilder()
	add(set, "title", patch.Title)
	add(set, "description", patch.Description)
	add(set, "category", patch.Category)
	add(set, "price", patch.Price)
	add(set, "price_type", patch.PriceType)
	add(set, "address", patch.Address)
	add(set, "latitude", patch.Latitude)
	add(set, "longitude", patch.Longitude)
	if patch.Features != nil {
		set.set("features", patch.Features)
	}
	if patch.ClearExpiry {
		set.clauses = append(set.clauses, "expires_at = NULL")
	} else {
		add(set, "expires_at", patch.ExpiresAt)
	}
	add(set, "created_by", patch.CreatedBy)

	idArg := set.arg(id)
	query := fmt.Sprintf(`UPDATE listings SET %s, updated_at = NOW() WHERE id = %s RETURNING %s`,
		strings.Join(set.clauses, ", "), idArg, listingColumns)

	return scanListing(r.pool.QueryRow(ctx, query, set.args...))
}

func (r *ListingRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM listings WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) query(ctx context.Context, query string, args ...any) ([]models.Listing, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]models.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func scanListing(row pgx.Row) (models.Listing, error) {
	var listing models.Listing
	if err := row.Scan(
		&listing.ID,
		&listing.Title,
		&listing.Description,
		&listing.Category,
		&listing.Price,
		&listing.PriceType,
		&listing.Address,
		&listing.Latitude,
		&listing.Longitude,
		&listing.Features,
		&listing.ExpiresAt,
		&listing.CreatedBy,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Listing{}, ErrListingNotFound
		}
		return models.Listing{}, translate(err)
	}
	return listing, nil
}
