// Package store persists properties, verification snapshots, assessment runs
// and comparable-sale evidence. Two backends exist: SQLite for single-user
// CLI work and Postgres for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ashdown-property/splitscan/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// PropertyFilter specifies criteria for listing properties.
type PropertyFilter struct {
	Postcode string `json:"postcode,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the assessment engine.
type Store interface {
	// Properties
	UpsertProperty(ctx context.Context, p *model.Property) error
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error)

	// Verification snapshots, one current snapshot per property
	SaveSnapshot(ctx context.Context, snap *model.VerificationSnapshot) error
	GetSnapshot(ctx context.Context, propertyID string) (*model.VerificationSnapshot, error)

	// Assessment runs, append-only history
	SaveAssessment(ctx context.Context, a *model.Assessment) error
	ListAssessments(ctx context.Context, propertyID string, limit int) ([]model.Assessment, error)

	// Comparable evidence cache
	SaveComparables(ctx context.Context, district string, recs []model.ComparableRecord) (int, error)
	GetComparables(ctx context.Context, district string, since time.Time) ([]model.ComparableRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
