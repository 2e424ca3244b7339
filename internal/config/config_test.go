package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_MatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.95, cfg.Thresholds.High)
	assert.Equal(t, 0.80, cfg.Thresholds.Medium)
	assert.Equal(t, 0.50, cfg.Thresholds.Low)
	assert.Equal(t, 0.03, cfg.CitationBoost.PerHit)
	assert.Equal(t, 0.20, cfg.CitationBoost.Cap)
	assert.Equal(t, 3, cfg.Consensus.MaxRounds)
	assert.Equal(t, 0.70, cfg.Consensus.ArbiterConfidenceThreshold)
	assert.Equal(t, []int{5, 10, 25, 50}, cfg.Refinement.MentionCountTriggers)
	assert.Equal(t, 1536, cfg.Embedding.Dim)
	assert.Equal(t, "cosine", cfg.Embedding.Metric)
}

func TestSLAHoursConfig_Hours(t *testing.T) {
	s := DefaultConfig().SLAHours

	assert.Equal(t, 24, s.Hours(1))
	assert.Equal(t, 24, s.Hours(3))
	assert.Equal(t, 24*7, s.Hours(4))
	assert.Equal(t, 24*7, s.Hours(6))
	assert.Equal(t, 24*30, s.Hours(7))
	assert.Equal(t, 24*30, s.Hours(10))
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
thresholds:
  high: 0.97
priority:
  critical_domains: ["NLP", "robotics"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.97, cfg.Thresholds.High)
	// Untouched defaults survive the merge.
	assert.Equal(t, 0.80, cfg.Thresholds.Medium)
	assert.Equal(t, []string{"NLP", "robotics"}, cfg.Priority.CriticalDomains)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
thresholds:
  high: 1.5
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("CANONMATCH_DOMAIN", "NLP")
	out := ExpandEnv([]byte("domain: ${CANONMATCH_DOMAIN}"))
	assert.Equal(t, "domain: NLP", string(out))
}
