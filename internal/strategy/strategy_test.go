package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.NoError(t, DefaultRiskConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EntryRules = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MinEntryRulesMet = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MinEntryRulesMet = len(cfg.EntryRules) + 1
	assert.Error(t, cfg.Validate())
}

func TestRiskConfigValidate(t *testing.T) {
	r := DefaultRiskConfig()
	r.MaxRiskPerTradePct = 0
	assert.Error(t, r.Validate())

	r = DefaultRiskConfig()
	r.MaxPositionPct = -1
	assert.Error(t, r.Validate())

	r = DefaultRiskConfig()
	r.VolatilitySizeReduction = 1
	assert.Error(t, r.Validate())
}

func TestStoreFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "strategy.yaml"), filepath.Join(dir, "risk.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), s.Strategy())
	assert.Equal(t, DefaultRiskConfig(), s.Risk())
}

func TestStoreSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	strategyPath := filepath.Join(dir, "strategy.yaml")
	riskPath := filepath.Join(dir, "risk.yaml")

	s, err := NewStore(strategyPath, riskPath)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Name = "tighter"
	cfg.MinEntryRulesMet = 4
	require.NoError(t, s.SaveStrategy(cfg))

	risk := DefaultRiskConfig()
	risk.MaxPositionPct = 5
	require.NoError(t, s.SaveRisk(risk))

	// A fresh store reads back exactly what was saved.
	reloaded, err := NewStore(strategyPath, riskPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded.Strategy())
	assert.Equal(t, risk, reloaded.Risk())
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "strategy.yaml"), filepath.Join(dir, "risk.yaml"))
	require.NoError(t, err)

	bad := DefaultConfig()
	bad.MinEntryRulesMet = 0
	assert.Error(t, s.SaveStrategy(bad))
	// In-memory document stays untouched after a rejected save.
	assert.Equal(t, DefaultConfig(), s.Strategy())
}

func TestNewStoreRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	strategyPath := filepath.Join(dir, "strategy.yaml")
	require.NoError(t, os.WriteFile(strategyPath, []byte("entry_rules: []\nmin_entry_rules_met: 3\n"), 0o644))

	_, err := NewStore(strategyPath, filepath.Join(dir, "risk.yaml"))
	assert.Error(t, err)
}
