package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/steph-dove/conventions/internal/facts"
)

// Config is the resolved scan configuration. The engine treats it as
// read-only input; parsing files and merging CLI flags happens before a
// Config reaches the engine.
type Config struct {
	// Languages to scan. Empty means auto-detect from the file set.
	Languages []string `yaml:"languages"`
	// MaxFiles bounds the number of files indexed per scan.
	MaxFiles int `yaml:"max_files"`
	// Exclude holds glob patterns matched against relative paths.
	Exclude []string `yaml:"exclude"`
	// DisabledDetectors names detectors that must not run at all.
	DisabledDetectors []string `yaml:"disabled_detectors"`
	// DisabledRules holds rule identifiers excluded at registration.
	DisabledRules []string `yaml:"disabled_rules"`
	Cache         Cache    `yaml:"cache"`
	Output        Output   `yaml:"output"`
}

// Cache controls the incremental index cache.
type Cache struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Output controls where reports are written.
type Output struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		MaxFiles: 2000,
		Exclude: []string{
			"vendor/**",
			"node_modules/**",
			".git/**",
			"dist/**",
			"build/**",
		},
		Cache: Cache{
			Enabled: true,
			Dir:     ".conventions",
		},
		Output: Output{
			Dir:     ".conventions",
			Formats: []string{"json", "markdown"},
		},
	}
}

// Load reads a configuration file, filling missing fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 2000
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = ".conventions"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = ".conventions"
	}
	return cfg, nil
}

// Validate rejects configurations that violate the engine's contract. An
// unknown language is the invoking layer's mistake, not a property of the
// scanned repository, so it is a hard error.
func (c *Config) Validate() error {
	for _, lang := range c.Languages {
		if !facts.IsKnownLanguage(lang) {
			return fmt.Errorf("unknown language %q (supported: go, node, python)", lang)
		}
	}
	if c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive, got %d", c.MaxFiles)
	}
	return nil
}

// IsDetectorDisabled reports whether the named detector is switched off.
func (c *Config) IsDetectorDisabled(name string) bool {
	return containsString(c.DisabledDetectors, name)
}

// IsRuleDisabled reports whether a rule identifier is excluded.
func (c *Config) IsRuleDisabled(ruleID string) bool {
	return containsString(c.DisabledRules, ruleID)
}

// LanguageEnabled reports whether lang should be scanned. An empty language
// list enables everything (auto-detect).
func (c *Config) LanguageEnabled(lang facts.Language) bool {
	if len(c.Languages) == 0 {
		return true
	}
	return containsString(c.Languages, string(lang))
}

// Fingerprint hashes the cache-relevant configuration together with the
// registered detector set. A change in either invalidates the whole cache.
func (c *Config) Fingerprint(ruleIDs []string) string {
	type key struct {
		Languages []string `json:"languages"`
		MaxFiles  int      `json:"max_files"`
		Exclude   []string `json:"exclude"`
		Detectors []string `json:"detectors"`
		Rules     []string `json:"rules"`
	}
	k := key{
		Languages: sortedCopy(c.Languages),
		MaxFiles:  c.MaxFiles,
		Exclude:   sortedCopy(c.Exclude),
		Detectors: sortedCopy(c.DisabledDetectors),
		Rules:     sortedCopy(ruleIDs),
	}
	data, _ := json.Marshal(k)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func sortedCopy(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
