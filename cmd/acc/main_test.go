package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Parallel()

	root := newRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "worker", "migrate"}, names)

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	withWorker, err := serve.Flags().GetBool(withWorkerFlag)
	require.NoError(t, err)
	assert.True(t, withWorker)
	migrate, err := serve.Flags().GetBool(migrateFlag)
	require.NoError(t, err)
	assert.False(t, migrate)
}

func TestCommandsRejectArgs(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	root.SetArgs([]string{"migrate", "extra"})
	require.Error(t, root.Execute())
}
