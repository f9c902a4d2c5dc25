package tblogger

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/go-tblogger/internal/config"
)

// HparamsFile is the name of the persisted hyperparameter bundle.
const HparamsFile = "hparams.yaml"

// SaveHparams writes cfg to dir/hparams.yaml, creating dir if needed.
func SaveHparams(dir string, cfg config.Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode hparams: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, HparamsFile), data, 0o644); err != nil {
		return fmt.Errorf("write hparams: %w", err)
	}

	return nil
}

// LoadHparams reads a bundle previously written by SaveHparams.
func LoadHparams(dir string) (config.Config, error) {
	// #nosec G304 -- dir is a run directory chosen by the caller.
	data, err := os.ReadFile(filepath.Join(dir, HparamsFile))
	if err != nil {
		return config.Config{}, fmt.Errorf("read hparams: %w", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, fmt.Errorf("decode hparams: %w", err)
	}

	return cfg, nil
}
