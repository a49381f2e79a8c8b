package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"listinghub/internal/models"
)

const userColumns = `id, username, email, password_hash, role, is_verified, phone, profile_image, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user and fills the generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (
			username, email, password_hash, role, is_verified, phone, profile_image, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
		RETURNING id, created_at, updated_at
	`

	row := r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		string(user.PasswordHash),
		user.Role,
		user.IsVerified,
		user.Phone,
		user.ProfileImage,
	)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return translate(err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateProfile writes only the fields present in the patch.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, patch models.ProfilePatch) (models.User, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	set := newSetBuilder()
	add(set, "username", patch.Username)
	add(set, "email", patch.Email)
	add(set, "phone", patch.Phone)
	add(set, "profile_image", patch.ProfileImage)

	idArg := set.arg(id)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE id = %s RETURNING %s`,
		strings.Join(set.clauses, ", "), idArg, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, set.args...))
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user models.User
		hash string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&hash,
		&user.Role,
		&user.IsVerified,
		&user.Phone,
		&user.ProfileImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, translate(err)
	}
	user.PasswordHash = []byte(hash)
	return user, nil
}
