package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("POLICYSAVER_LOG_LEVEL", "disabled")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "policysaver "+version+"\n", out)
}

func TestSaveInspectEval(t *testing.T) {
	for _, network := range []string{"q", "qrnn"} {
		t.Run(network, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "artifact")

			out, err := run(t, "save", "--network", network, "--out", dir, "--seed", "98723")
			require.NoError(t, err)
			assert.Contains(t, out, "saved q_policy")

			out, err = run(t, "inspect", dir)
			require.NoError(t, err)
			var manifest map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &manifest))
			assert.Contains(t, manifest, "signatures")

			out, err = run(t, "inspect", dir, "--format", "yaml")
			require.NoError(t, err)
			require.NoError(t, yaml.Unmarshal([]byte(out), &manifest))

			first, err := run(t, "eval", dir)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(first, "action: "), first)

			second, err := run(t, "eval", dir)
			require.NoError(t, err)
			assert.Equal(t, first, second, "seeded artifact is deterministic across loads")
		})
	}
}

func TestSaveRejectsBadFlags(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "save", "--network", "conv", "--out", filepath.Join(dir, "a"))
	assert.Error(t, err)

	_, err = run(t, "save", "--policy", "boltzmann", "--out", filepath.Join(dir, "b"))
	assert.Error(t, err)

	_, err = run(t, "save")
	assert.Error(t, err, "--out is required")
}

func TestGreedyAndRandomPolicies(t *testing.T) {
	for _, policy := range []string{"greedy", "random"} {
		dir := filepath.Join(t.TempDir(), policy)
		out, err := run(t, "save", "--policy", policy, "--out", dir)
		require.NoError(t, err)
		assert.Contains(t, out, policy+"_policy")

		_, err = run(t, "eval", dir, "--batch", "5")
		require.NoError(t, err)
	}
}

func TestInspectUnknownFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifact")
	_, err := run(t, "save", "--out", dir)
	require.NoError(t, err)

	_, err = run(t, "inspect", dir, "--format", "toml")
	assert.Error(t, err)
}

func TestEvalDistribution(t *testing.T) {
	for _, policy := range []string{"q", "greedy"} {
		t.Run(policy, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "artifact")
			_, err := run(t, "save", "--network", "qrnn", "--policy", policy, "--out", dir, "--seed", "98723")
			require.NoError(t, err)

			out, err := run(t, "eval", dir, "--batch", "2", "--distribution")
			require.NoError(t, err)
			assert.Contains(t, out, "probs[0]: ")
			assert.Contains(t, out, "probs[1]: ")
			assert.NotContains(t, out, "probs[2]: ")
			assert.Contains(t, out, "log_prob: ")
		})
	}

	dir := filepath.Join(t.TempDir(), "random")
	_, err := run(t, "save", "--policy", "random", "--out", dir)
	require.NoError(t, err)
	_, err = run(t, "eval", dir, "--distribution")
	assert.ErrorContains(t, err, "no action distribution")
}
