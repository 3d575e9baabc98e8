package config

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration loaded from TOML.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	// AdminKey is the hex-encoded 32-byte public key allowed to issue admin
	// commands.
	AdminKey string `toml:"AdminKey"`
	// MultisigAddress is the hex-encoded 20-byte destination for admin
	// surplus withdrawals.
	MultisigAddress string  `toml:"MultisigAddress"`
	SecondsPerTick  uint64  `toml:"SecondsPerTick"`
	RateLimitPerMin float64 `toml:"RateLimitPerMinute"`
	RateLimitBurst  int     `toml:"RateLimitBurst"`
	Environment     string  `toml:"Environment"`
}

const defaultConfig = `# certledger daemon configuration
ListenAddress = "127.0.0.1:8650"
DataDir = "./certledger-data"
# Hex-encoded 32-byte admin public key. Commands signed by this key may use
# the admin-only opcodes.
AdminKey = "0000000000000000000000000000000000000000000000000000000000000000"
# Hex-encoded 20-byte multisig destination for admin surplus withdrawals.
MultisigAddress = "0000000000000000000000000000000000000000"
SecondsPerTick = 5
RateLimitPerMinute = 600.0
RateLimitBurst = 30
Environment = ""
`

// Load reads the configuration from the given path, creating a commented
// default file when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if _, err := toml.Decode(defaultConfig, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = "127.0.0.1:8650"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./certledger-data"
	}
	if cfg.SecondsPerTick == 0 {
		cfg.SecondsPerTick = 5
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 600.0
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 30
	}
}

// Validate checks the key and address encodings.
func (c *Config) Validate() error {
	if _, err := c.AdminKeyWords(); err != nil {
		return err
	}
	if _, err := c.MultisigBytes(); err != nil {
		return err
	}
	return nil
}

// AdminKeyWords decodes the admin public key into its four 64-bit limbs.
func (c *Config) AdminKeyWords() ([4]uint64, error) {
	var words [4]uint64
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(c.AdminKey), "0x"))
	if err != nil {
		return words, fmt.Errorf("config: invalid AdminKey: %w", err)
	}
	if len(raw) != 32 {
		return words, fmt.Errorf("config: AdminKey must be 32 bytes, got %d", len(raw))
	}
	for i := range words {
		words[i] = binary.BigEndian.Uint64(raw[8*i:])
	}
	return words, nil
}

// MultisigBytes decodes the multisig withdrawal address.
func (c *Config) MultisigBytes() ([20]byte, error) {
	var addr [20]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(c.MultisigAddress), "0x"))
	if err != nil {
		return addr, fmt.Errorf("config: invalid MultisigAddress: %w", err)
	}
	if len(raw) != 20 {
		return addr, fmt.Errorf("config: MultisigAddress must be 20 bytes, got %d", len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}
