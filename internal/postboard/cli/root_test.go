package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(nil)
	require.NotNil(t, cmd)
	assert.Equal(t, "postboard", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	commands := [][]string{
		{"login"}, {"register"}, {"logout"}, {"whoami"}, {"forgot-password"},
		{"posts", "list"}, {"posts", "show"}, {"posts", "create"},
		{"posts", "update"}, {"posts", "delete"}, {"posts", "comment"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(nil)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("ephemeral"))
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand(nil)

	tests := []struct {
		path  []string
		flags []string
	}{
		{[]string{"login"}, []string{"email", "password"}},
		{[]string{"register"}, []string{"name", "email", "password", "password-confirmation"}},
		{[]string{"whoami"}, []string{"refresh"}},
		{[]string{"forgot-password"}, []string{"email"}},
		{[]string{"posts", "list"}, []string{"search"}},
		{[]string{"posts", "create"}, []string{"title", "content"}},
		{[]string{"posts", "update"}, []string{"title", "content"}},
		{[]string{"posts", "comment"}, []string{"content"}},
	}

	for _, tt := range tests {
		sub, _, err := cmd.Find(tt.path)
		require.NoError(t, err)
		for _, name := range tt.flags {
			assert.NotNil(t, sub.Flags().Lookup(name), "%v --%s", tt.path, name)
		}
	}
}

func TestExecuteCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"login", "--nope"}},
		{"invalid format", []string{"--format", "yaml", "whoami"}},
		{"missing argument", []string{"posts", "show"}},
		{"unknown command", []string{"frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			opts := &RootOptions{NewApp: failingFactory(t)}

			code := Execute(context.Background(), opts, tt.args, &stdout, &stderr)
			assert.Equal(t, ExitCommandError, code)
			assert.Contains(t, stderr.String(), "Error:")
		})
	}
}
