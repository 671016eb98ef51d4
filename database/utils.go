package database

import (
	"context"
	"time"
)

// Common timeout durations for database operations
const (
	// ShortTimeout for quick operations like reading or writing a single document
	ShortTimeout = 5 * time.Second

	// MediumTimeout for queries that might return multiple documents
	MediumTimeout = 10 * time.Second

	// LongTimeout for bulk operations
	LongTimeout = 30 * time.Second
)

// WithShortTimeout derives a context bounded by ShortTimeout
func WithShortTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, ShortTimeout)
}

// WithMediumTimeout derives a context bounded by MediumTimeout
func WithMediumTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, MediumTimeout)
}

// WithLongTimeout derives a context bounded by LongTimeout
func WithLongTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, LongTimeout)
}
