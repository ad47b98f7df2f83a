// Package config loads and validates batch configuration.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/glycanlab/glycandia/pkg/core"
)

// Config holds every recognized run option. Key names match the original
// config files of the upstream workflow.
type Config struct {
	InputPath  string
	OutputPath string
	MSListName string

	Polarity    core.Polarity
	Adduct      core.Adduct
	MaxCharge   int
	ChargeRange []int // overrides MaxCharge when non-empty

	PPMMS1 float64
	PPMMS2 float64

	MinMatchedCounts int

	MinRelHeight float64
	MinHeight    float64

	MinMass float64
	MaxMass float64

	MinTimeMin float64
	MaxTimeMin float64

	FlexMode            bool
	MaxAlignedRecordMS2 int // 0 = unlimited
	DebugMode           bool
}

// SetDefaults registers the option defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ms_list_name", "ms_list.csv")
	v.SetDefault("polarity", string(core.PolarityPositive))
	v.SetDefault("adduct", string(core.AdductH))
	v.SetDefault("max_charge", 3)
	v.SetDefault("ms1_mass_error_ppm", 10.0)
	v.SetDefault("ms2_mass_error_ppm", 20.0)
	v.SetDefault("min_matched_counts", 3)
	v.SetDefault("min_rel_height", 0.001)
	v.SetDefault("min_height", 5000.0)
	v.SetDefault("min_mass", 0.0)
	v.SetDefault("max_mass", math.Inf(1))
	v.SetDefault("min_time_min", 0.0)
	v.SetDefault("max_time_min", math.Inf(1))
	v.SetDefault("flex_mode", false)
	v.SetDefault("max_aligned_record_ms2", 0)
	v.SetDefault("debug_mode", false)
}

// Load reads the configuration out of a viper instance and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		InputPath:           v.GetString("input_path"),
		OutputPath:          v.GetString("output_path"),
		MSListName:          v.GetString("ms_list_name"),
		MaxCharge:           v.GetInt("max_charge"),
		PPMMS1:              v.GetFloat64("ms1_mass_error_ppm"),
		PPMMS2:              v.GetFloat64("ms2_mass_error_ppm"),
		MinMatchedCounts:    v.GetInt("min_matched_counts"),
		MinRelHeight:        v.GetFloat64("min_rel_height"),
		MinHeight:           v.GetFloat64("min_height"),
		MinMass:             v.GetFloat64("min_mass"),
		MaxMass:             v.GetFloat64("max_mass"),
		MinTimeMin:          v.GetFloat64("min_time_min"),
		MaxTimeMin:          v.GetFloat64("max_time_min"),
		FlexMode:            v.GetBool("flex_mode"),
		MaxAlignedRecordMS2: v.GetInt("max_aligned_record_ms2"),
		DebugMode:           v.GetBool("debug_mode"),
	}

	var err error
	if cfg.Polarity, err = core.ParsePolarity(v.GetString("polarity")); err != nil {
		return nil, err
	}
	if cfg.Adduct, err = core.ParseAdduct(v.GetString("adduct")); err != nil {
		return nil, err
	}
	if cfg.ChargeRange, err = parseChargeRange(v.GetString("charge_range")); err != nil {
		return nil, err
	}

	if cfg.InputPath == "" {
		return nil, fmt.Errorf("config: input_path is required")
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("config: output_path is required")
	}
	if cfg.MinRelHeight < 0 || cfg.MinRelHeight > 1 {
		return nil, fmt.Errorf("config: min_rel_height must be within [0,1], got %g", cfg.MinRelHeight)
	}
	if cfg.MaxCharge < 1 && len(cfg.ChargeRange) == 0 {
		return nil, fmt.Errorf("config: max_charge must be at least 1")
	}
	return cfg, nil
}

// Charges returns the candidate charge list: the explicit charge_range when
// present, otherwise 1..max_charge.
func (c *Config) Charges() []int {
	if len(c.ChargeRange) > 0 {
		return c.ChargeRange
	}
	charges := make([]int, c.MaxCharge)
	for i := range charges {
		charges[i] = i + 1
	}
	return charges
}

// parseChargeRange parses a comma-separated charge list such as "2,3".
func parseChargeRange(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var charges []int
	for _, part := range strings.Split(s, ",") {
		z, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("config: charge_range %q: %w", s, err)
		}
		charges = append(charges, z)
	}
	return charges, nil
}
