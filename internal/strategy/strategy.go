// Package strategy holds the externally editable strategy and risk documents
// consumed by the decision synthesizer.
package strategy

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config is the strategy document: ordered rule text plus the satisfaction policy.
type Config struct {
	Name       string   `yaml:"name" json:"name"`
	EntryRules []string `yaml:"entry_rules" json:"entry_rules"`
	ExitRules  []string `yaml:"exit_rules" json:"exit_rules"`

	// MinEntryRulesMet is how many entry rules must be MET before a BUY fires.
	MinEntryRulesMet int `yaml:"min_entry_rules_met" json:"min_entry_rules_met"`

	// MissingDataEntryMet keeps the source policy: an entry rule with no data to
	// judge it defaults to MET. Exit rules always default to NOT MET regardless.
	MissingDataEntryMet bool `yaml:"missing_data_entry_met" json:"missing_data_entry_met"`
}

// RiskConfig is the flat risk parameter document.
type RiskConfig struct {
	MaxRiskPerTradePct       float64 `yaml:"max_risk_per_trade_pct" json:"max_risk_per_trade_pct"`
	MaxPositionPct           float64 `yaml:"max_position_pct" json:"max_position_pct"`
	VolatilitySizeReduction  float64 `yaml:"volatility_size_reduction" json:"volatility_size_reduction"`
	DefaultStopLossPct       float64 `yaml:"default_stop_loss_pct" json:"default_stop_loss_pct"`
	DefaultTakeProfitPct     float64 `yaml:"default_take_profit_pct" json:"default_take_profit_pct"`
}

// DefaultConfig is used when no strategy document exists on disk yet.
func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		EntryRules: []string{
			"price above 20-day SMA and trend up",
			"RSI below 70",
			"news sentiment not negative",
			"fundamentals healthy",
		},
		ExitRules: []string{
			"RSI above 80",
			"MACD bearish cross",
			"news sentiment strongly negative",
		},
		MinEntryRulesMet:    3,
		MissingDataEntryMet: true,
	}
}

// DefaultRiskConfig mirrors the source system's shipped limits.
func DefaultRiskConfig() *RiskConfig {
	return &RiskConfig{
		MaxRiskPerTradePct:      1.0,
		MaxPositionPct:          10.0,
		VolatilitySizeReduction: 0.4,
		DefaultStopLossPct:      2.0,
		DefaultTakeProfitPct:    4.0,
	}
}

// Validate rejects documents the synthesizer cannot run on.
func (c *Config) Validate() error {
	if len(c.EntryRules) == 0 {
		return fmt.Errorf("strategy: entry_rules cannot be empty")
	}
	if c.MinEntryRulesMet <= 0 {
		return fmt.Errorf("strategy: min_entry_rules_met must be positive")
	}
	if c.MinEntryRulesMet > len(c.EntryRules) {
		return fmt.Errorf("strategy: min_entry_rules_met %d exceeds entry rule count %d",
			c.MinEntryRulesMet, len(c.EntryRules))
	}
	return nil
}

// Validate rejects unusable risk limits.
func (r *RiskConfig) Validate() error {
	if r.MaxRiskPerTradePct <= 0 {
		return fmt.Errorf("risk: max_risk_per_trade_pct must be positive")
	}
	if r.MaxPositionPct <= 0 {
		return fmt.Errorf("risk: max_position_pct must be positive")
	}
	if r.VolatilitySizeReduction < 0 || r.VolatilitySizeReduction >= 1 {
		return fmt.Errorf("risk: volatility_size_reduction must be in [0,1)")
	}
	return nil
}

// Store loads and saves the strategy and risk documents as opaque yaml files.
// Reads are snapshot reads; Save replaces the whole document.
type Store struct {
	mu           sync.RWMutex
	strategyPath string
	riskPath     string
	strategy     *Config
	risk         *RiskConfig
}

// NewStore reads both documents, falling back to defaults when a file is absent.
func NewStore(strategyPath, riskPath string) (*Store, error) {
	s := &Store{strategyPath: strategyPath, riskPath: riskPath}

	cfg := DefaultConfig()
	if b, err := os.ReadFile(strategyPath); err == nil {
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse strategy document: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s.strategy = cfg

	risk := DefaultRiskConfig()
	if b, err := os.ReadFile(riskPath); err == nil {
		if err := yaml.Unmarshal(b, risk); err != nil {
			return nil, fmt.Errorf("parse risk document: %w", err)
		}
	}
	if err := risk.Validate(); err != nil {
		return nil, err
	}
	s.risk = risk

	return s, nil
}

// Strategy returns the current strategy document.
func (s *Store) Strategy() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy
}

// Risk returns the current risk document.
func (s *Store) Risk() *RiskConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.risk
}

// SaveStrategy validates, persists, and swaps in a new strategy document.
func (s *Store) SaveStrategy(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal strategy document: %w", err)
	}
	if err := os.WriteFile(s.strategyPath, b, 0o644); err != nil {
		return fmt.Errorf("write strategy document: %w", err)
	}
	s.mu.Lock()
	s.strategy = cfg
	s.mu.Unlock()
	return nil
}

// SaveRisk validates, persists, and swaps in a new risk document.
func (s *Store) SaveRisk(cfg *RiskConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal risk document: %w", err)
	}
	if err := os.WriteFile(s.riskPath, b, 0o644); err != nil {
		return fmt.Errorf("write risk document: %w", err)
	}
	s.mu.Lock()
	s.risk = cfg
	s.mu.Unlock()
	return nil
}
