package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"load", "index", "resolve", "nearby", "normalize", "stats", "serve", "worker"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}

func TestResolveRequiresQuery(t *testing.T) {
	_, err := run(t, "resolve")
	assert.Error(t, err)
}

func TestNearbyRequiresCentre(t *testing.T) {
	_, err := run(t, "nearby", "--radius", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--place")
}

func TestProgressCallbacksAreSafe(t *testing.T) {
	step, finish := newProgress(3, "test")
	step(1)
	step(2)
	finish()
}
