package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlsFlags(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"controls"})
	require.NoError(t, err)
	require.Same(t, controlsCmd, cmd)

	values := cmd.Flags().Lookup("values")
	require.NotNil(t, values)
	assert.Empty(t, values.Shorthand)

	verbose := cmd.InheritedFlags().ShorthandLookup("v")
	require.NotNil(t, verbose)
	assert.Equal(t, "verbose", verbose.Name)
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{
		"cards", "controls", "get", "set", "level", "select", "setint", "dbrange",
		"watch", "routes", "route", "volume", "input-source",
	} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
