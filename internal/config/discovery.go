package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/engine"
	"github.com/quillback/autoscout/internal/improve"
)

// LoadDiscoveryConfig builds the orchestrator configuration from viper,
// falling back to defaults for anything unset.
func LoadDiscoveryConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if v := viper.GetInt("discovery.window_hours"); v > 0 {
		cfg.Window = time.Duration(v) * time.Hour
	}
	if viper.IsSet("discovery.min_confidence") {
		cfg.MinConfidence = viper.GetFloat64("discovery.min_confidence")
	}
	if viper.IsSet("proposals.budget_min") {
		cfg.Budget.Min = viper.GetFloat64("proposals.budget_min")
	}
	if viper.IsSet("proposals.budget_max") {
		cfg.Budget.Max = viper.GetFloat64("proposals.budget_max")
	}
	if viper.IsSet("proposals.target_roi") {
		cfg.TargetROI = viper.GetFloat64("proposals.target_roi")
	}

	if err := validateDiscovery(cfg); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

func validateDiscovery(cfg engine.Config) error {
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return fmt.Errorf("%w: discovery.min_confidence must be in [0,1]", common.ErrInvalidConfig)
	}
	if cfg.Budget.Min < 0 || cfg.Budget.Max < cfg.Budget.Min {
		return fmt.Errorf("%w: proposals.budget_min/budget_max", common.ErrInvalidConfig)
	}
	return nil
}

// LoadImprovementConfig builds the scheduler configuration from viper.
func LoadImprovementConfig() improve.Config {
	cfg := improve.DefaultConfig()

	if v := viper.GetInt("improvement.retrain_threshold"); v > 0 {
		cfg.RetrainThreshold = v
	}
	if v := viper.GetInt("improvement.retrain_interval_hours"); v > 0 {
		cfg.RetrainInterval = time.Duration(v) * time.Hour
	}
	if viper.IsSet("improvement.underperform_score") {
		cfg.UnderperformScore = viper.GetFloat64("improvement.underperform_score")
	}
	if viper.IsSet("improvement.accuracy_floor") {
		cfg.AccuracyFloor = viper.GetFloat64("improvement.accuracy_floor")
	}
	if v := viper.GetInt("training.epochs"); v > 0 {
		cfg.Epochs = v
	}
	return cfg
}
