// Package config reads the command line, BMPCONV_* environment variables and
// an optional TOML file into a Config.
package config

import (
	"fmt"
	"strings"

	"bmpconverter/database"
	"bmpconverter/imageprocessor"
	"bmpconverter/scanner"
	"bmpconverter/types"
	"bmpconverter/utils"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BMPCONV_WORKERS.
const EnvPrefix = "BMPCONV"

// Decoders.
const (
	DecoderOpenCV = "opencv"
	DecoderNative = "native"
)

// ErrUsage is returned when the positional arguments are missing or help
// was requested.
var ErrUsage = errors.New("usage")

// Config is everything a run needs.
type Config struct {
	InputRoot string
	LabelSet  types.LabelSet
	StorePath string

	Workers       int
	Schedule      scanner.Schedule
	Backend       database.Backend
	Decoder       string
	MapSize       int64
	ProgressEvery int64
	Scale         float64
	Extension     string
	MaxPixels     int

	MetricsFile string
	LogFile     string
	Debug       bool
}

// NewFlagSet defines every option with its default.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Int("workers", scanner.MaxConcurrency, "Maximum subdirectories processed concurrently")
	fs.String("schedule", string(scanner.Waves), "Dispatch mode: waves (batch barrier) or pool (continuous refill)")
	fs.String("backend", string(database.Bolt), "Dataset store backend: bolt or sqlite")
	fs.String("decoder", DecoderOpenCV, "Image decoder: opencv or native (8/24/32-bit BMP, PNG)")
	fs.String("map-size", "1GiB", "Address space reserved for the store")
	fs.Int64("progress-every", scanner.DefaultProgressEvery, "Print progress every N stored items")
	fs.Float64("scale", imageprocessor.DefaultScale, "Canvas side as a multiple of the longer blob side (1.0-2.0)")
	fs.String("ext", ".bmp", "Extension of files to convert")
	fs.Int("max-pixels", imageprocessor.DefaultMaxPixels, "Reject decoded images larger than this many pixels")
	fs.String("metrics-file", "", "Write prometheus counters to this file when done")
	fs.String("logfile", "", "Write the log to this file instead of stderr")
	fs.Bool("debug", false, "Log every processed file")
	fs.StringP("config", "c", "", "TOML configuration file")
	fs.BoolP("help", "h", false, "Show usage")
	return fs
}

// Load parses args (without the program name) into a Config. Options are
// resolved from flags, then the environment, then the config file.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(ErrUsage, err.Error())
	}
	if help, _ := fs.GetBool("help"); help {
		return nil, ErrUsage
	}
	pos := fs.Args()
	if len(pos) < 3 {
		return nil, errors.Wrapf(ErrUsage, "expected 3 arguments, got %d", len(pos))
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	}

	labelSet, err := types.ParseLabelSet(pos[1])
	if err != nil {
		return nil, errors.Wrap(ErrUsage, err.Error())
	}
	c := &Config{
		InputRoot:     pos[0],
		LabelSet:      labelSet,
		StorePath:     pos[2],
		Workers:       v.GetInt("workers"),
		Decoder:       v.GetString("decoder"),
		ProgressEvery: v.GetInt64("progress-every"),
		Scale:         v.GetFloat64("scale"),
		Extension:     v.GetString("ext"),
		MaxPixels:     v.GetInt("max-pixels"),
		MetricsFile:   v.GetString("metrics-file"),
		LogFile:       v.GetString("logfile"),
		Debug:         v.GetBool("debug"),
	}
	if c.Schedule, err = scanner.ParseSchedule(v.GetString("schedule")); err != nil {
		return nil, err
	}
	if c.Backend, err = database.ParseBackend(v.GetString("backend")); err != nil {
		return nil, err
	}
	if c.MapSize, err = utils.ParseSize(v.GetString("map-size")); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.ProgressEvery < 1:
		return fmt.Errorf("progress-every must be at least 1, got %d", c.ProgressEvery)
	case c.Scale < 1 || c.Scale > 2:
		return fmt.Errorf("scale must be between 1.0 and 2.0, got %g", c.Scale)
	case c.MaxPixels < 1:
		return fmt.Errorf("max-pixels must be at least 1, got %d", c.MaxPixels)
	case c.MapSize < 1<<20:
		return fmt.Errorf("map-size must be at least 1MiB, got %d", c.MapSize)
	case c.Decoder != DecoderOpenCV && c.Decoder != DecoderNative:
		return fmt.Errorf("unknown decoder %q", c.Decoder)
	}
	return nil
}
