package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/safegrade/pkg/scoring"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

// Config represents app config object.
type Config struct {
	Layout      Layout              `yaml:"layout"`
	Calibration scoring.Calibration `yaml:"calibration"`
	Standards   string              `yaml:"standards,omitempty"`
	LogLevel    string              `yaml:"logLevel"`
}

// Layout holds the grade bar tuning parameters.
type Layout struct {
	LowestBarPercent float64 `yaml:"lowestBarPercent"`
	MinBarWidth      float64 `yaml:"minBarWidth"`
}

func getDefaultConfig() *Config {
	return &Config{
		Layout: Layout{
			LowestBarPercent: scoring.DefaultLowestBarPercent,
			MinBarWidth:      scoring.DefaultMinBarWidth,
		},
		Calibration: scoring.DefaultCalibration(),
		LogLevel:    "info",
	}
}

// Positions returns the layout engine described by the config.
func (c *Config) Positions() (*scoring.Positions, error) {
	return scoring.NewPositions(c.Layout.LowestBarPercent, c.Layout.MinBarWidth,
		scoring.WithCalibration(c.Calibration))
}

// Validate checks the layout parameters and band calibration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if err := c.Calibration.Validate(); err != nil {
		return fmt.Errorf("invalid calibration: %w", err)
	}
	if _, err := c.Positions(); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	return nil
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Values missing from the file keep their defaults.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, getDefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	j, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening config file %s: %w", path, err)
	}
	defer j.Close()

	b, err := io.ReadAll(j)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := getDefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
