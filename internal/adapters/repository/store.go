// Package repository loads roster snapshots and persists prediction reports.
package repository

import (
	"context"

	"github.com/okian/racepick/internal/domain/prediction"
)

// PredictionStore keeps the latest prediction report.
type PredictionStore interface {
	// Save replaces the stored report.
	Save(ctx context.Context, r *prediction.Report) error

	// Load returns the stored report, or ErrNotFound if there is none.
	Load(ctx context.Context) (*prediction.Report, error)

	// Backend names the storage kind for logs and metrics.
	Backend() string
}
