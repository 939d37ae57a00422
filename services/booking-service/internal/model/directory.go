package model

import "time"

// WorkHour is one weekly availability window, e.g. {"monday", "09:00", "18:00"}.
type WorkHour struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type Provider struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Active    bool
	WorkHours []WorkHour
	// Version is the auth-service account version this row reflects.
	Version   int64
	UpdatedAt time.Time
}

type Client struct {
	ID        string
	Name      string
	Email     string
	UpdatedAt time.Time
}

type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Duration    string    `json:"duration"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
