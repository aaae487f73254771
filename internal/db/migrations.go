// Package db holds the ACC schema as embedded goose migrations.
package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the migration files rooted so goose finds them at ".".
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		// Only possible if the embed pattern above changes.
		panic(err)
	}
	return sub
}
