// Package account owns provider and client identities: registration,
// credential checks, token sessions and provider profile changes.
package account

import (
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
)

const (
	RoleProvider = auth.RoleProvider
	RoleClient   = auth.RoleClient
)

// WorkHour is one weekly window a provider accepts bookings in.
type WorkHour struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type Account struct {
	ID           string
	Role         string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	WorkHours    []WorkHour
	Active       bool
	// Version starts at 1 and grows with every change, so consumers of
	// account events can discard stale ones.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is what a successful register, login or refresh hands back.
type Session struct {
	Account      Account
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}
