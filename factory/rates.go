/*
Package factory provides YAML to rate table conversion.

PURPOSE:
  Converts YAML rate histories into a benefit.RateTable. Rates are
  enacted amendments, not code: when the base amount or the guarantee
  rate changes, operations updates a config file and restarts the server.
  No code change, no redeploy of logic.

YAML SCHEMA:
  base_rate:
    - effective_from: 2023-05-01
      yearly_amount: "118620"
  guarantee_rate:
    - effective_from: 2023-05-01
      yearly_amount: "198284"

KEY FEATURES:
  - Validates dates and amounts before anything reaches the engine
  - Rejects duplicate effective dates (two amounts in force at once)
  - Ships a default table with the recent enacted history for dev setups

USAGE:
  rates, err := factory.LoadRateFile("./rates.yaml")
  calc := benefit.NewCalculator(rates)

SEE ALSO:
  - benefit/rates.go: The RateTable this builds
  - cmd/server/main.go: Loads the file at startup
*/
package factory

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/velferd/benefit-engine/benefit"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// RateFileConfig is the YAML representation of the two rate histories.
type RateFileConfig struct {
	BaseRate      []RateEntryConfig `yaml:"base_rate"`
	GuaranteeRate []RateEntryConfig `yaml:"guarantee_rate"`
}

// RateEntryConfig is one enacted amendment.
type RateEntryConfig struct {
	EffectiveFrom string `yaml:"effective_from"`
	YearlyAmount  string `yaml:"yearly_amount"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRateConfig parses and validates a YAML rate config document.
func ParseRateConfig(data []byte) (*benefit.RateTable, error) {
	var cfg RateFileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rate config: %w", err)
	}

	base, err := parseEntries("base_rate", cfg.BaseRate)
	if err != nil {
		return nil, err
	}
	guarantee, err := parseEntries("guarantee_rate", cfg.GuaranteeRate)
	if err != nil {
		return nil, err
	}

	if len(base) == 0 {
		return nil, fmt.Errorf("rate config has no base_rate entries")
	}
	return benefit.NewRateTable(base, guarantee), nil
}

// LoadRateFile reads and parses a YAML rate config file.
func LoadRateFile(path string) (*benefit.RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate config %s: %w", path, err)
	}
	return ParseRateConfig(data)
}

func parseEntries(section string, configs []RateEntryConfig) ([]benefit.RateEntry, error) {
	entries := make([]benefit.RateEntry, 0, len(configs))
	seen := make(map[time.Time]bool)

	for i, c := range configs {
		from, err := time.ParseInLocation("2006-01-02", c.EffectiveFrom, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: invalid effective_from %q: %w", section, i, c.EffectiveFrom, err)
		}
		if seen[from] {
			return nil, fmt.Errorf("%s[%d]: duplicate effective_from %s", section, i, c.EffectiveFrom)
		}
		seen[from] = true

		amount, err := decimal.NewFromString(c.YearlyAmount)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: invalid yearly_amount %q: %w", section, i, c.YearlyAmount, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%s[%d]: yearly_amount %s is negative", section, i, c.YearlyAmount)
		}

		entries = append(entries, benefit.RateEntry{EffectiveFrom: from, YearlyAmount: amount})
	}
	return entries, nil
}

// =============================================================================
// DEFAULT TABLE - Recent enacted history, for dev and demos
// =============================================================================

// DefaultRateTable returns a table covering the recent enacted history of
// both rate kinds. Production deployments load their own file instead.
func DefaultRateTable() *benefit.RateTable {
	base := []benefit.RateEntry{
		entry("2019-05-01", "99858"),
		entry("2020-05-01", "101351"),
		entry("2021-05-01", "106399"),
		entry("2022-05-01", "111477"),
		entry("2023-05-01", "118620"),
		entry("2024-05-01", "124028"),
	}
	guarantee := []benefit.RateEntry{
		entry("2019-05-01", "167125"),
		entry("2020-05-01", "170765"),
		entry("2021-05-01", "177724"),
		entry("2022-05-01", "185939"),
		entry("2023-05-01", "198284"),
		entry("2024-05-01", "207954"),
	}
	return benefit.NewRateTable(base, guarantee)
}

func entry(from, yearly string) benefit.RateEntry {
	t, err := time.ParseInLocation("2006-01-02", from, time.UTC)
	if err != nil {
		panic(err) // static data, checked by tests
	}
	return benefit.RateEntry{
		EffectiveFrom: t,
		YearlyAmount:  decimal.RequireFromString(yearly),
	}
}
