// Package migrations embeds the booking-service schema.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS

// LockID serializes booking migrations across replicas.
const LockID int64 = 734120101
