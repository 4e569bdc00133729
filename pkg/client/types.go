package client

import "time"

// Appointment mirrors the server's wire representation.
type Appointment struct {
	ID        int64     `json:"id,omitempty"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type clearResponse struct {
	Deleted int64 `json:"deleted"`
}

type errorResponse struct {
	Error string `json:"error"`
}
