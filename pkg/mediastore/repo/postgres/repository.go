package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

// DB is the subset of pgxpool.Pool the repository needs: plain queries plus
// the ability to open transactions.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository implements mediastore.Repository using PostgreSQL
type Repository struct {
	db DB
}

// New creates a new PostgreSQL repository
func New(db DB) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository from a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// CreateImages inserts all rows in one transaction; IDs and timestamps come
// from the database so insert order matches created_at order within the
// batch.
func (r *Repository) CreateImages(ctx context.Context, images []*mediastore.Image) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return handlePostgresError("begin create images", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO location_images (url, storage_key, location_id, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	for _, img := range images {
		err := tx.QueryRow(ctx, query,
			img.URL, img.StorageKey, img.LocationID, img.OwnerID,
		).Scan(&img.ID, &img.CreatedAt)
		if err != nil {
			return handlePostgresError("create images", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return handlePostgresError("commit create images", err)
	}
	return nil
}

func (r *Repository) GetImage(ctx context.Context, id uuid.UUID) (*mediastore.Image, error) {
	query := `
		SELECT id, url, storage_key, location_id, owner_id, created_at
		FROM location_images WHERE id = $1`

	var img mediastore.Image
	err := r.db.QueryRow(ctx, query, id).Scan(
		&img.ID, &img.URL, &img.StorageKey, &img.LocationID, &img.OwnerID, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mediastore.ErrImageNotFound
		}
		return nil, handlePostgresError("get image", err)
	}

	return &img, nil
}

func (r *Repository) ListImagesByLocation(ctx context.Context, locationID uuid.UUID) ([]*mediastore.Image, error) {
	query := `
		SELECT id, url, storage_key, location_id, owner_id, created_at
		FROM location_images
		WHERE location_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, handlePostgresError("list images", err)
	}
	defer rows.Close()

	var images []*mediastore.Image
	for rows.Next() {
		var img mediastore.Image
		if err := rows.Scan(&img.ID, &img.URL, &img.StorageKey, &img.LocationID, &img.OwnerID, &img.CreatedAt); err != nil {
			return nil, handlePostgresError("scan image", err)
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

func (r *Repository) BeginImageTx(ctx context.Context) (mediastore.ImageTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, handlePostgresError("begin image tx", err)
	}
	return &imageTx{tx: tx}, nil
}

type imageTx struct {
	tx pgx.Tx
}

// GetImageForUpdate takes the row lock that serializes concurrent deletes
// of the same image.
func (t *imageTx) GetImageForUpdate(ctx context.Context, id uuid.UUID) (*mediastore.Image, error) {
	query := `
		SELECT id, url, storage_key, location_id, owner_id, created_at
		FROM location_images WHERE id = $1
		FOR UPDATE`

	var img mediastore.Image
	err := t.tx.QueryRow(ctx, query, id).Scan(
		&img.ID, &img.URL, &img.StorageKey, &img.LocationID, &img.OwnerID, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mediastore.ErrImageNotFound
		}
		return nil, handlePostgresError("lock image", err)
	}

	return &img, nil
}

func (t *imageTx) DeleteImage(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM location_images WHERE id = $1`, id); err != nil {
		return handlePostgresError("delete image", err)
	}
	return nil
}

func (t *imageTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *imageTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// Location operations

func (r *Repository) CreateLocation(ctx context.Context, location *mediastore.Location) error {
	query := `
		INSERT INTO locations (name, longitude, latitude, is_user_generated, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		location.Name, location.Longitude, location.Latitude,
		location.IsUserGenerated, location.CreatedBy,
	).Scan(&location.ID, &location.CreatedAt)
	if err != nil {
		return handlePostgresError("create location", err)
	}
	return nil
}

func (r *Repository) GetLocation(ctx context.Context, id uuid.UUID) (*mediastore.Location, error) {
	query := `
		SELECT id, name, longitude, latitude, is_user_generated, created_by, created_at
		FROM locations WHERE id = $1`

	var loc mediastore.Location
	err := r.db.QueryRow(ctx, query, id).Scan(
		&loc.ID, &loc.Name, &loc.Longitude, &loc.Latitude,
		&loc.IsUserGenerated, &loc.CreatedBy, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mediastore.ErrLocationNotFound
		}
		return nil, handlePostgresError("get location", err)
	}

	return &loc, nil
}

// ListLocations returns every location with its average rating and the URL
// of its oldest image, joined in one query rather than per-row lookups.
func (r *Repository) ListLocations(ctx context.Context) ([]*mediastore.LocationSummary, error) {
	query := `
		SELECT
			l.id, l.name, l.longitude, l.latitude,
			l.is_user_generated, l.created_by, l.created_at,
			avg_ratings.avg_rating,
			first_images.image_url
		FROM locations l
		LEFT JOIN (
			SELECT location_id, AVG(rating)::float8 AS avg_rating
			FROM reviews
			GROUP BY location_id
		) avg_ratings ON l.id = avg_ratings.location_id
		LEFT JOIN (
			SELECT DISTINCT ON (location_id) location_id, url AS image_url
			FROM location_images
			ORDER BY location_id, created_at ASC
		) first_images ON l.id = first_images.location_id
		ORDER BY l.name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("list locations", err)
	}
	defer rows.Close()

	var out []*mediastore.LocationSummary
	for rows.Next() {
		var s mediastore.LocationSummary
		err := rows.Scan(
			&s.ID, &s.Name, &s.Longitude, &s.Latitude,
			&s.IsUserGenerated, &s.CreatedBy, &s.CreatedAt,
			&s.AverageRating, &s.PreviewURL)
		if err != nil {
			return nil, handlePostgresError("scan location", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Review operations

func (r *Repository) CreateReview(ctx context.Context, review *mediastore.Review) error {
	query := `
		INSERT INTO reviews (location_id, author_id, rating, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		review.LocationID, review.AuthorID, review.Rating, review.Body,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return handlePostgresError("create review", err)
	}
	return nil
}

func (r *Repository) ListReviewsByLocation(ctx context.Context, locationID uuid.UUID) ([]*mediastore.Review, error) {
	query := `
		SELECT id, location_id, author_id, rating, body, created_at
		FROM reviews
		WHERE location_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, handlePostgresError("list reviews", err)
	}
	defer rows.Close()

	var reviews []*mediastore.Review
	for rows.Next() {
		var rev mediastore.Review
		if err := rows.Scan(&rev.ID, &rev.LocationID, &rev.AuthorID, &rev.Rating, &rev.Body, &rev.CreatedAt); err != nil {
			return nil, handlePostgresError("scan review", err)
		}
		reviews = append(reviews, &rev)
	}
	return reviews, rows.Err()
}

var _ mediastore.Repository = (*Repository)(nil)
