// Package migrations embeds the auth-service schema.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS

// LockID serializes auth migrations across replicas.
const LockID int64 = 734120201
