package models

import (
	"time"

	"github.com/google/uuid"
)

// URL represents a shortened URL record persisted in the database.
// Records are immutable after creation except for the visit counter.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID uuid.UUID
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// ShortCode is the short identifier associated with the original URL.
	ShortCode string
	// Visits tracks the number of times the shortened URL has been resolved
	// through the persistent store.
	Visits int64
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
	// ExpiresAt, when set, marks the point after which the record is treated
	// as absent by resolution. The record itself is never deleted.
	ExpiresAt *time.Time
}

// Expired reports whether the record is logically expired at the given time.
func (u *URL) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && !u.ExpiresAt.After(now)
}

// Stats aggregates usage statistics across all URL records, expired records
// included.
type Stats struct {
	// TotalURLs is the total number of records ever created.
	TotalURLs int64
	// TotalVisits is the sum of visit counts across all records.
	TotalVisits int64
	// URLs holds the ten records with the highest visit counts, descending.
	URLs []URL
}
