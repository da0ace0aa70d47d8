// Package config loads the externally configured settings the engine
// consumes: the SRS interval table, the simulacro scoring constants and the
// authoring defaults. Sources are layered in increasing precedence: built-in
// defaults, a YAML file, STUDYLIB_* environment variables, command-line
// flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/studylib/internal/scoring"
	"github.com/conorfennell/studylib/internal/srs"
)

const envPrefix = "STUDYLIB_"

// SRS configures the spaced-repetition scheduler.
type SRS struct {
	Intervals             []int `koanf:"intervals" validate:"required,min=1,dive,gte=0"`
	GraduationRequirement int   `koanf:"graduation_requirement" validate:"gte=1"`
}

// Simulacro holds the fixed points-and-penalty table for simulacro grading.
type Simulacro struct {
	PointsCorrect       float64 `koanf:"points_correct" validate:"gt=0"`
	PenaltyThreeOptions float64 `koanf:"penalty_three_options" validate:"gte=0"`
	PenaltyFourOptions  float64 `koanf:"penalty_four_options" validate:"gte=0"`
	ProratedTotal       float64 `koanf:"prorated_total" validate:"gt=0"`
}

// Settings is the full configuration surface.
type Settings struct {
	DatabasePath       string    `koanf:"db_path" validate:"required"`
	ShareRepo          string    `koanf:"share_repo"`
	DefaultOptionCount int       `koanf:"default_option_count" validate:"gte=2,lte=5"`
	SRS                SRS       `koanf:"srs"`
	Simulacro          Simulacro `koanf:"simulacro"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		DatabasePath:       "studylib.db",
		DefaultOptionCount: 4,
		SRS: SRS{
			Intervals:             []int{1, 3, 7, 15, 30, 60},
			GraduationRequirement: 5,
		},
		Simulacro: Simulacro{
			PointsCorrect:       3,
			PenaltyThreeOptions: 1.5,
			PenaltyFourOptions:  1,
			ProratedTotal:       10,
		},
	}
}

// Load layers the configuration sources over the defaults and validates the
// result. path may be empty or point to a missing file; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Settings{}, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	// STUDYLIB_SRS__GRADUATION_REQUIREMENT → srs.graduation_requirement
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load environment config: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Settings{}, fmt.Errorf("failed to load flag config: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SrsConfig converts the settings into the scheduler's config.
func (s Settings) SrsConfig() srs.Config {
	return srs.Config{
		Intervals:             s.SRS.Intervals,
		GraduationRequirement: s.SRS.GraduationRequirement,
	}
}

// SimulacroPolicy converts the settings into the simulacro scoring policy.
func (s Settings) SimulacroPolicy() scoring.Simulacro {
	return scoring.Simulacro{
		PointsCorrect:       s.Simulacro.PointsCorrect,
		PenaltyThreeOptions: s.Simulacro.PenaltyThreeOptions,
		PenaltyFourOptions:  s.Simulacro.PenaltyFourOptions,
		ProratedTotal:       s.Simulacro.ProratedTotal,
	}
}
