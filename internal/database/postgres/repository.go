package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
)

type urlRecord struct {
	ID          uuid.UUID  `db:"id"`
	OriginalURL string     `db:"original_url"`
	ShortCode   string     `db:"short_code"`
	Visits      int64      `db:"visits"`
	CreatedAt   time.Time  `db:"created_at"`
	ExpiresAt   *time.Time `db:"expires_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ID:          r.ID,
		OriginalURL: r.OriginalURL,
		ShortCode:   r.ShortCode,
		Visits:      r.Visits,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}

// URLRepository provides access to shortened URL records stored in PostgreSQL.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts a new URL record. A short-code collision surfaces as
// database.ErrShortCodeExists.
func (r *URLRepository) Create(ctx context.Context, shortCode, originalURL string, expiresAt *time.Time) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(short_code, original_url, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, originalURL, expiresAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetByShortCode retrieves a live record by its short code. Records whose
// expires_at has passed are treated as absent. The visit counter is not
// touched here; resolution increments it separately via IncrementVisits.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE short_code = $1
		AND (expires_at IS NULL OR expires_at > now())`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// IncrementVisits atomically bumps the visit counter of a record. Increments
// are commutative, so concurrent resolutions never lose counts.
func (r *URLRepository) IncrementVisits(ctx context.Context, id uuid.UUID) error {
	const op = "database.postgres.URLRepository.IncrementVisits"

	query := `UPDATE urls
		SET visits = visits + 1
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: failed to increment visits: %w", op, err)
	}

	return nil
}

// Stats reports the total record count, the historical visit sum and the ten
// most visited records. Expired records are included in all three.
func (r *URLRepository) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "database.postgres.URLRepository.Stats"

	var summary struct {
		TotalURLs   int64 `db:"total_urls"`
		TotalVisits int64 `db:"total_visits"`
	}
	summaryQuery := `SELECT COUNT(*) AS total_urls, COALESCE(SUM(visits), 0) AS total_visits
		FROM urls`

	if err := r.db.GetContext(ctx, &summary, summaryQuery); err != nil {
		return nil, fmt.Errorf("%s: failed to get stats summary: %w", op, err)
	}

	var recs []urlRecord
	topQuery := `SELECT * FROM urls
		ORDER BY visits DESC
		LIMIT 10`

	if err := r.db.SelectContext(ctx, &recs, topQuery); err != nil {
		return nil, fmt.Errorf("%s: failed to get top urls: %w", op, err)
	}

	stats := &models.Stats{
		TotalURLs:   summary.TotalURLs,
		TotalVisits: summary.TotalVisits,
		URLs:        make([]models.URL, 0, len(recs)),
	}
	for _, rec := range recs {
		stats.URLs = append(stats.URLs, *rec.ToURL())
	}

	return stats, nil
}

// Ping runs a trivial round-trip query, used by the health endpoint.
func (r *URLRepository) Ping(ctx context.Context) error {
	const op = "database.postgres.URLRepository.Ping"

	var one int
	if err := r.db.GetContext(ctx, &one, `SELECT 1`); err != nil {
		return fmt.Errorf("%s: database is unreachable: %w", op, err)
	}

	return nil
}
