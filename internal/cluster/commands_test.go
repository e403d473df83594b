package cluster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qchemtools/corrflux/internal/cluster"
	"github.com/qchemtools/corrflux/internal/clustertest"
)

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'/scratch/run 1'", cluster.ShellQuote("/scratch/run 1"))
	assert.Equal(t, `'it'\''s'`, cluster.ShellQuote("it's"))
}

func TestCommandsQuotePaths(t *testing.T) {
	ctx := context.Background()
	fake := clustertest.NewFakeSession()
	cmds := cluster.NewCommands(fake)

	require.NoError(t, cmds.MkdirAll(ctx, "/colony/calc 1"))
	require.NoError(t, cmds.Move(ctx, "/colony/a.log", "/scratch/a.log"))
	require.NoError(t, cmds.RemoveDir(ctx, "/scratch/calc 1"))

	assert.Contains(t, fake.Commands, "mkdir -p '/colony/calc 1'")
	assert.Contains(t, fake.Commands, "mv -f '/colony/a.log' '/scratch/a.log'")
	assert.Contains(t, fake.Commands, "rm -rf '/scratch/calc 1'")
}

func TestMoveGlobLeavesPatternUnquoted(t *testing.T) {
	fake := clustertest.NewFakeSession()
	cmds := cluster.NewCommands(fake)

	require.NoError(t, cmds.MoveGlob(context.Background(), "/scratch/c1/*", "/colony/c1"))
	assert.Contains(t, fake.Commands, "mv -f /scratch/c1/* '/colony/c1'/")
}

func TestAppendFileIdempotent(t *testing.T) {
	ctx := context.Background()
	fake := clustertest.NewFakeSession()
	cmds := cluster.NewCommands(fake)

	// Marker absent on the first pass.
	fake.Script("grep -qF", clustertest.Response{Err: errors.New("exit status 1")})

	appended, err := cmds.AppendFile(ctx, "/colony/c1/c1.log", "Thresholds", "Thresholds\n 1d-10 1d-10\n")
	require.NoError(t, err)
	assert.True(t, appended)

	// Marker present on the second pass.
	fake.Script("grep -qF", clustertest.Response{})
	appended, err = cmds.AppendFile(ctx, "/colony/c1/c1.log", "Thresholds", "Thresholds\n 1d-10 1d-10\n")
	require.NoError(t, err)
	assert.False(t, appended)

	assert.Equal(t, 1, fake.CommandCount("cat >>"))
}
