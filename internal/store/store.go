package store

import (
	"context"
	"time"
)

// Appointment is one scheduled booking.
type Appointment struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists appointments. Implementations: memory, sqlite, postgres.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, a Appointment) (Appointment, error)
	List(ctx context.Context) ([]Appointment, error)
	Clear(ctx context.Context) (int64, error)
	Close() error
}
