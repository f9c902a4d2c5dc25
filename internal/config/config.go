package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the hyperparameter bundle of a training run. It is loaded once
// and treated as read-only afterwards.
type Config struct {
	Name  string      `mapstructure:"name"  yaml:"name"`
	Log   LogConfig   `mapstructure:"log"   yaml:"log"`
	Audio AudioConfig `mapstructure:"audio" yaml:"audio"`
	Dist  DistConfig  `mapstructure:"dist"  yaml:"dist"`
}

type LogConfig struct {
	TensorboardDir string `mapstructure:"tensorboard_dir" yaml:"tensorboard_dir"`
	Level          string `mapstructure:"level"           yaml:"level"`
}

type AudioConfig struct {
	SamplingRate int `mapstructure:"sampling_rate" yaml:"sampling_rate"`
	FilterLength int `mapstructure:"filter_length" yaml:"filter_length"`
	HopLength    int `mapstructure:"hop_length"    yaml:"hop_length"`
}

// DistConfig describes the process position in a multi-process run.
// A negative Rank means "resolve from the environment".
type DistConfig struct {
	Rank int `mapstructure:"rank" yaml:"rank"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Name: "nuwave",
		Log: LogConfig{
			TensorboardDir: "tensorboard",
			Level:          "info",
		},
		Audio: AudioConfig{
			SamplingRate: 22050,
			FilterLength: 1024,
			HopLength:    256,
		},
		Dist: DistConfig{
			Rank: -1,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("name", defaults.Name, "Experiment name (run directory under the tensorboard dir)")
	fs.String("log-tensorboard-dir", defaults.Log.TensorboardDir, "Root directory for event logs")
	fs.String("log-level", defaults.Log.Level, "Log level (debug|info|warn|error)")
	fs.Int("audio-sampling-rate", defaults.Audio.SamplingRate, "Sample rate of logged audio clips")
	fs.Int("audio-filter-length", defaults.Audio.FilterLength, "STFT size used for spectrogram plots")
	fs.Int("audio-hop-length", defaults.Audio.HopLength, "STFT hop used for spectrogram plots")
	fs.Int("dist-rank", defaults.Dist.Rank, "Process rank (-1 resolves from RANK/LOCAL_RANK/SLURM_PROCID)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("TBLOGGER")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("hparameter")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first field that cannot drive a logger.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("config: name must not be empty")
	case c.Log.TensorboardDir == "":
		return fmt.Errorf("config: log.tensorboard_dir must not be empty")
	case c.Audio.SamplingRate < 1:
		return fmt.Errorf("config: invalid audio.sampling_rate %d", c.Audio.SamplingRate)
	case c.Audio.FilterLength < 2:
		return fmt.Errorf("config: invalid audio.filter_length %d", c.Audio.FilterLength)
	case c.Audio.HopLength < 1:
		return fmt.Errorf("config: invalid audio.hop_length %d", c.Audio.HopLength)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: invalid log.level: %w", err)
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("name", c.Name)
	v.SetDefault("log.tensorboard_dir", c.Log.TensorboardDir)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("audio.sampling_rate", c.Audio.SamplingRate)
	v.SetDefault("audio.filter_length", c.Audio.FilterLength)
	v.SetDefault("audio.hop_length", c.Audio.HopLength)
	v.SetDefault("dist.rank", c.Dist.Rank)
}

// flagKeys maps flag names to nested config keys. Flags are bound per key
// rather than aliased so that values from a config file still decode.
var flagKeys = map[string]string{
	"name":                "name",
	"log-tensorboard-dir": "log.tensorboard_dir",
	"log-level":           "log.level",
	"audio-sampling-rate": "audio.sampling_rate",
	"audio-filter-length": "audio.filter_length",
	"audio-hop-length":    "audio.hop_length",
	"dist-rank":           "dist.rank",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}

	return nil
}
