package db_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/db"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(db.Migrations(), "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	schema := ""
	for _, name := range files {
		data, err := fs.ReadFile(db.Migrations(), name)
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", name)
		assert.Contains(t, string(data), "-- +goose Down", name)
		schema += string(data)
	}

	for _, table := range []string{
		"user_group", "site_permission", "user_group_site_permission", "users",
		"ac_game", "game_console", "game", "town", "character", "pattern",
		"pattern_favorite", "tune", "guide", "poll", "poll_option", "poll_vote",
		"shop", "rule", "rule_violation", "notification", "user_ticket",
		"support_ticket", "support_ticket_message", "support_email", "feature",
		"feature_follow", "session",
	} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE "+table+" ("), table)
	}
}
