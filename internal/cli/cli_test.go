// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin []byte, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, bytes.NewReader(stdin), &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// setupCLI isolates the run from any real config file and writes a secret.
func setupCLI(t *testing.T, secret []byte) (secretPath, shardsDir string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	secretPath = filepath.Join(dir, "secret.bin")
	require.NoError(t, os.WriteFile(secretPath, secret, 0600))
	return secretPath, filepath.Join(dir, "shards")
}

func shardFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "shard_*"))
	require.NoError(t, err)
	return matches
}

func TestShardCombine_RoundTrip(t *testing.T) {
	secret := []byte("correct horse battery staple")
	secretPath, shardsDir := setupCLI(t, secret)

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "5", "-t", "3")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Wrote 5 shares")
	assert.Len(t, shardFiles(t, shardsDir), 5)
	assert.FileExists(t, filepath.Join(shardsDir, "manifest.yaml"))

	info, err := os.Stat(filepath.Join(shardsDir, "shard_0"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	outPath := filepath.Join(t.TempDir(), "recovered.bin")
	res = runCLI(t, nil, "combine", shardsDir, outPath)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Recovered 28 bytes from 5 shares")

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	info, err = os.Stat(outPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCombine_ThresholdSubset(t *testing.T) {
	secret := []byte("threshold subset")
	secretPath, shardsDir := setupCLI(t, secret)

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "--parts", "5", "--threshold", "3")
	require.Equal(t, ExitOK, res.code, res.stderr)

	require.NoError(t, os.Remove(filepath.Join(shardsDir, "shard_0")))
	require.NoError(t, os.Remove(filepath.Join(shardsDir, "shard_3")))

	outPath := filepath.Join(t.TempDir(), "out")
	res = runCLI(t, nil, "combine", shardsDir, outPath)
	require.Equal(t, ExitOK, res.code, res.stderr)
	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	require.NoError(t, os.Remove(filepath.Join(shardsDir, "shard_4")))
	res = runCLI(t, nil, "combine", shardsDir, outPath)
	assert.Equal(t, ExitReconstruction, res.code)
	assert.Contains(t, res.stderr, "insufficient shares")
}

func TestCombine_ToStdout(t *testing.T) {
	secret := []byte{0x00, 0xFF, 0x10, 0x80}
	secretPath, shardsDir := setupCLI(t, secret)

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "2", "-t", "2")
	require.Equal(t, ExitOK, res.code, res.stderr)

	res = runCLI(t, nil, "combine", shardsDir, "-")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, string(secret), res.stdout)
}

func TestShard_FromStdin(t *testing.T) {
	_, shardsDir := setupCLI(t, nil)

	res := runCLI(t, []byte("piped secret"), "shard", "-", shardsDir, "-p", "3", "-t", "2")
	require.Equal(t, ExitOK, res.code, res.stderr)

	res = runCLI(t, nil, "combine", shardsDir, "-")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "piped secret", res.stdout)
}

func TestShard_ConfigurationError(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("secret"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "2", "-t", "3")
	assert.Equal(t, ExitConfiguration, res.code)
	assert.Contains(t, res.stderr, "threshold exceeds parts")
	assert.NoDirExists(t, shardsDir)

	res = runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "256", "-t", "3")
	assert.Equal(t, ExitConfiguration, res.code)

	res = runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "3", "-t", "0")
	assert.Equal(t, ExitConfiguration, res.code)
}

func TestShard_EmptySecret(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte{})

	res := runCLI(t, nil, "shard", secretPath, shardsDir)
	assert.Equal(t, ExitEmptyInput, res.code)
	assert.Empty(t, shardFiles(t, shardsDir))
}

func TestShard_MissingSecretFile(t *testing.T) {
	_, shardsDir := setupCLI(t, nil)

	res := runCLI(t, nil, "shard", filepath.Join(t.TempDir(), "missing"), shardsDir)
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "failed to read secret")
}

func TestShard_ExistingSet(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("first"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "3", "-t", "2")
	require.Equal(t, ExitOK, res.code, res.stderr)

	res = runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "3", "-t", "2")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "already exists")

	require.NoError(t, os.WriteFile(secretPath, []byte("second"), 0600))
	res = runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "2", "-t", "2", "--overwrite")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Len(t, shardFiles(t, shardsDir), 2)

	res = runCLI(t, nil, "combine", shardsDir, "-")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "second", res.stdout)
}

func TestCombine_CorruptShare(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("secret"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "3", "-t", "2")
	require.Equal(t, ExitOK, res.code, res.stderr)

	path := filepath.Join(shardsDir, "shard_1")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] = 'X'
	require.NoError(t, os.WriteFile(path, data, 0600))

	res = runCLI(t, nil, "combine", shardsDir, "-")
	assert.Equal(t, ExitFormat, res.code)
	assert.Contains(t, res.stderr, "bad magic")
}

func TestCombine_DuplicateShare(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("secret"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "3", "-t", "2")
	require.Equal(t, ExitOK, res.code, res.stderr)

	data, err := os.ReadFile(filepath.Join(shardsDir, "shard_0"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(shardsDir, "shard_9"), data, 0600))

	res = runCLI(t, nil, "combine", shardsDir, "-")
	assert.Equal(t, ExitReconstruction, res.code)
	assert.Contains(t, res.stderr, "duplicate x-coordinate")
}

func TestCombine_MissingAndEmptyDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	res := runCLI(t, nil, "combine", filepath.Join(dir, "missing"), "-")
	assert.Equal(t, ExitFailure, res.code)
	assert.NoDirExists(t, filepath.Join(dir, "missing"))

	res = runCLI(t, nil, "combine", dir, "-")
	assert.Equal(t, ExitReconstruction, res.code)
	assert.Contains(t, res.stderr, "no shards found")
}

func TestShard_DeterministicSeed(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("reproducible"))
	otherDir := filepath.Join(t.TempDir(), "other")

	args := []string{"-p", "4", "-t", "3", "--insecure-deterministic-seed", "test-seed"}
	res := runCLI(t, nil, append([]string{"shard", secretPath, shardsDir}, args...)...)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "deterministic coefficients")

	res = runCLI(t, nil, append([]string{"shard", secretPath, otherDir}, args...)...)
	require.Equal(t, ExitOK, res.code, res.stderr)

	for i := 0; i < 4; i++ {
		name := "shard_" + string(rune('0'+i))
		a, err := os.ReadFile(filepath.Join(shardsDir, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(otherDir, name))
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
	}
}

func TestShard_SequentialX(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("abc"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "3", "-t", "2", "--x-coordinates", "sequential")
	require.Equal(t, ExitOK, res.code, res.stderr)

	for i := 0; i < 3; i++ {
		data, err := os.ReadFile(filepath.Join(shardsDir, "shard_"+string(rune('0'+i))))
		require.NoError(t, err)
		assert.Equal(t, byte(i+1), data[4])
		assert.Equal(t, byte(2), data[3])
	}
}

func TestShard_JSONOutput(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("json please"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "3", "-t", "2", "-o", "json")
	require.Equal(t, ExitOK, res.code, res.stderr)

	var out struct {
		Status       string `json:"status"`
		SetID        string `json:"set_id"`
		Parts        int    `json:"parts"`
		Threshold    int    `json:"threshold"`
		SecretLength int    `json:"secret_length"`
		Shards       []struct {
			Key string `json:"key"`
			X   int    `json:"x"`
		} `json:"shards"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "success", out.Status)
	assert.NotEmpty(t, out.SetID)
	assert.Equal(t, 3, out.Parts)
	assert.Equal(t, 2, out.Threshold)
	assert.Equal(t, 11, out.SecretLength)
	require.Len(t, out.Shards, 3)
	assert.Equal(t, "shard_0", out.Shards[0].Key)
}

func TestError_JSONOutput(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("x"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "1", "-t", "2", "-o", "json")
	require.Equal(t, ExitConfiguration, res.code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stderr[strings.Index(res.stderr, "{"):]), &out))
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "configuration", out["kind"])
	assert.Equal(t, float64(ExitConfiguration), out["exit_code"])
}

func TestInspect(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("inspect me"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "4", "-t", "3")
	require.Equal(t, ExitOK, res.code, res.stderr)

	res = runCLI(t, nil, "inspect", shardsDir)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Threshold:     3")
	assert.Contains(t, res.stdout, "Shares found:  4")
	assert.Contains(t, res.stdout, "Sufficient:    true")
	assert.Contains(t, res.stdout, "shard_3: x=")
	assert.NotContains(t, res.stdout, "inspect me")

	require.NoError(t, os.Remove(filepath.Join(shardsDir, "manifest.yaml")))
	require.NoError(t, os.Remove(filepath.Join(shardsDir, "shard_0")))
	require.NoError(t, os.Remove(filepath.Join(shardsDir, "shard_1")))

	res = runCLI(t, nil, "inspect", shardsDir, "-o", "json")
	require.Equal(t, ExitOK, res.code, res.stderr)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, false, out["sufficient"])
	assert.NotContains(t, out, "manifest")
}

func TestUsageErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"missing args", []string{"shard", "only-one"}},
		{"extra args", []string{"combine", "a", "b", "c"}},
		{"unknown flag", []string{"shard", "a", "b", "--bogus"}},
		{"bad int", []string{"shard", "a", "b", "-p", "many"}},
		{"bad rng", []string{"shard", "a", "b", "--rng", "dice"}},
		{"bad output", []string{"version", "-o", "yaml"}},
		{"bad store", []string{"inspect", "a", "--store", "s3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, nil, tt.args...)
			assert.Equal(t, ExitUsage, res.code, res.stderr)
			assert.Contains(t, res.stderr, "Error:")
		})
	}
}

func TestEnvironmentConfiguration(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("from env"))
	t.Setenv("SHAMIR_PARTS", "4")
	t.Setenv("SHAMIR_THRESHOLD", "2")

	res := runCLI(t, nil, "shard", secretPath, shardsDir)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Len(t, shardFiles(t, shardsDir), 4)

	otherDir := filepath.Join(t.TempDir(), "flags")
	res = runCLI(t, nil, "shard", secretPath, otherDir, "-p", "3")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Len(t, shardFiles(t, otherDir), 3)
}

func TestConfigFile(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("from file"))
	configPath := filepath.Join(t.TempDir(), "shamir.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("parts: 2\nthreshold: 2\noutput: json\n"), 0600))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "--config", configPath)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Len(t, shardFiles(t, shardsDir), 2)
	assert.True(t, json.Valid([]byte(res.stdout)))
}

func TestMetricsFile(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("measured"))
	metricsPath := filepath.Join(t.TempDir(), "shamir.prom")

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "3", "-t", "2", "--metrics-file", metricsPath)
	require.Equal(t, ExitOK, res.code, res.stderr)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shamir_operations_total")
	assert.Contains(t, string(data), "shamir_secret_bytes")
}

func TestVerboseLogging(t *testing.T) {
	secretPath, shardsDir := setupCLI(t, []byte("chatty"))

	res := runCLI(t, nil, "shard", secretPath, shardsDir, "-p", "2", "-t", "2", "-v", "--log-format", "json")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, `"level":"DEBUG"`)
	assert.Contains(t, res.stderr, `"msg":"sharding secret"`)
	assert.NotContains(t, res.stderr, "chatty")
}

func TestVersion(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	res := runCLI(t, nil, "version")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "shamir version "+Version)

	res = runCLI(t, nil, "version", "-o", "json")
	require.Equal(t, ExitOK, res.code, res.stderr)
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, Version, out["version"])
}
