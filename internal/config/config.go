package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SPIConfig describes how the EVE module is wired to the host.
type SPIConfig struct {
	// Port is the periph.io SPI port name; "" picks the first one.
	Port string `yaml:"port" json:"port"`
	// MaxHz caps the SPI clock.
	MaxHz int64 `yaml:"max_hz" json:"max_hz"`
	// PDPin is the power-down GPIO name (e.g. "GPIO25"); "" if not wired.
	PDPin string `yaml:"pd_pin" json:"pd_pin"`
}

// BacklightRule sets the backlight to Duty whenever Cron fires.
type BacklightRule struct {
	Cron string `yaml:"cron" json:"cron"`
	Duty int    `yaml:"duty" json:"duty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Board selects a preset from internal/board (e.g. "EVE3_50G").
	Board string `yaml:"board" json:"board"`

	// Driver is "spi" for real hardware or "sim" for the in-memory
	// controller.
	Driver string `yaml:"driver" json:"driver"`

	SPI SPIConfig `yaml:"spi" json:"spi"`

	// FrameIntervalMs is the period of the touch+frame cycle. 20ms gives
	// the 50 updates per second the demo is designed around.
	FrameIntervalMs int `yaml:"frame_interval_ms" json:"frame_interval_ms"`

	// Backlight is the PWM duty applied after init, 0..128.
	Backlight int `yaml:"backlight" json:"backlight"`

	// BacklightSchedule adjusts the backlight on a cron schedule.
	BacklightSchedule []BacklightRule `yaml:"backlight_schedule" json:"backlight_schedule"`

	// Calibrate runs the interactive touch calibration at start-up instead
	// of trusting the board's recorded constants.
	Calibrate bool `yaml:"calibrate" json:"calibrate"`

	// PictureFormat is "jpeg" (decoded by the co-processor) or "rgb565"
	// (uploaded pre-packed).
	PictureFormat string `yaml:"picture_format" json:"picture_format"`

	// Listen is the HTTP listen address of the status API; "" disables it.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Board:  "EVE3_50G",
		Driver: "spi",
		SPI: SPIConfig{
			MaxHz: 8_000_000,
			PDPin: "GPIO25",
		},
		FrameIntervalMs:   20,
		Backlight:         0x80,
		BacklightSchedule: []BacklightRule{},
		PictureFormat:     "jpeg",
		Listen:            "127.0.0.1:8080",
		LogLevel:          "info",
	}
}

// Normalize fills in missing or out-of-range values so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	if c.Board == "" {
		c.Board = "EVE3_50G"
	}
	switch c.Driver {
	case "spi", "sim":
	default:
		c.Driver = "spi"
	}
	if c.SPI.MaxHz <= 0 {
		c.SPI.MaxHz = 8_000_000
	}
	// Never poll faster than the controller can retire a list.
	if c.FrameIntervalMs < 10 {
		c.FrameIntervalMs = 20
	}
	c.Backlight = clampDuty(c.Backlight)
	if c.BacklightSchedule == nil {
		c.BacklightSchedule = []BacklightRule{}
	}
	for i := range c.BacklightSchedule {
		c.BacklightSchedule[i].Duty = clampDuty(c.BacklightSchedule[i].Duty)
	}
	switch c.PictureFormat {
	case "jpeg", "rgb565":
	default:
		c.PictureFormat = "jpeg"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func clampDuty(d int) int {
	return max(0, min(d, 0x80))
}

// Load loads configuration from the given YAML path. A missing file is
// created with defaults (0600) and the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg anyway so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700 if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".evedemo-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
