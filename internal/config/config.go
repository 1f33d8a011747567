package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/rules"
)

// DefaultLeader marks a chat message as a command line.
const DefaultLeader = "#"

// Config holds the global pipesh configuration.
type Config struct {
	// Leader is stripped from inbound messages; messages without it are
	// ignored. A "leader" variable in the store overrides it at runtime.
	Leader string `yaml:"leader"`

	// Joins lists conversation targets joined once at startup.
	Joins []string `yaml:"joins"`

	// JoinsFile optionally names a file with one target per line, read in
	// addition to Joins.
	JoinsFile string `yaml:"joins_file"`

	// Rules adds argument-level checks per capability on top of the
	// hardcoded ones.
	Rules map[string]rules.CapRuleConfig `yaml:"rules"`

	Tiers     TierConfig      `yaml:"tiers"`
	Store     StoreConfig     `yaml:"store"`
	Audit     AuditConfig     `yaml:"audit"`
	Transport TransportConfig `yaml:"transport"`
}

// TierConfig controls which safety tiers are enabled.
type TierConfig struct {
	Read  bool `yaml:"read"`
	Write bool `yaml:"write"`
}

// StoreConfig controls the variable store.
type StoreConfig struct {
	// Dir is the BadgerDB directory. Empty means an in-memory store.
	Dir string `yaml:"dir"`
}

// AuditConfig controls audit log settings.
type AuditConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// TransportConfig selects how chat messages arrive.
type TransportConfig struct {
	// Kind is "stdio" or "websocket".
	Kind string `yaml:"kind"`
	// URL is the websocket endpoint for Kind "websocket".
	URL string `yaml:"url"`
	// Nick is the bot's own identity; messages from it are ignored.
	Nick string `yaml:"nick"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Leader: DefaultLeader,
		Tiers: TierConfig{
			Read:  true,
			Write: true,
		},
		Store: StoreConfig{
			Dir: filepath.Join(home, ".local", "share", "pipesh", "store"),
		},
		Audit: AuditConfig{
			Path:    filepath.Join(home, ".local", "share", "pipesh", "audit.jsonl"),
			Enabled: true,
		},
		Transport: TransportConfig{
			Kind: "stdio",
			Nick: "pipesh",
		},
	}
}

// Load reads the config from the standard location
// (~/.config/pipesh/config.yaml). If the file doesn't exist, returns the
// default config.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	cfg.JoinsFile = expandHome(cfg.JoinsFile)

	if cfg.Leader == "" {
		return nil, fmt.Errorf("config %s: leader must not be empty", path)
	}
	switch cfg.Transport.Kind {
	case "stdio":
	case "websocket":
		if cfg.Transport.URL == "" {
			return nil, fmt.Errorf("config %s: transport.url is required for websocket", path)
		}
	default:
		return nil, fmt.Errorf("config %s: unknown transport kind %q", path, cfg.Transport.Kind)
	}

	return cfg, nil
}

// JoinTargets returns Joins followed by the non-blank lines of JoinsFile.
func (c *Config) JoinTargets() ([]string, error) {
	targets := append([]string(nil), c.Joins...)
	if c.JoinsFile == "" {
		return targets, nil
	}
	f, err := os.Open(c.JoinsFile)
	if err != nil {
		return nil, fmt.Errorf("open joins file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			targets = append(targets, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read joins file: %w", err)
	}
	return targets, nil
}

// ApplyTiers sets the registry tier permissions from the config.
func (c *Config) ApplyTiers(reg *cap.Registry) {
	reg.SetTier(cap.TierRead, c.Tiers.Read)
	reg.SetTier(cap.TierWrite, c.Tiers.Write)
}

// ApplyRules builds a RuleSet from the config and sets it on the registry.
// Hardcoded rules are always included.
func (c *Config) ApplyRules(reg *cap.Registry) {
	rs := rules.NewRuleSet(rules.Hardcoded()...)
	for name, capRule := range c.Rules {
		for _, fn := range rules.CompileCapRule(name, capRule) {
			rs.AddConfig(fn)
		}
	}
	reg.SetRules(rs)
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pipesh", "config.yaml")
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, path[1:])
}
