package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/quillback/autoscout/internal/common"
)

func TestLoadDiscoveryConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadDiscoveryConfig()
	if err != nil {
		t.Fatalf("LoadDiscoveryConfig() error = %v", err)
	}
	if cfg.Window != 7*24*time.Hour {
		t.Errorf("Window = %v, want 168h", cfg.Window)
	}
	if cfg.MinConfidence != 0.3 {
		t.Errorf("MinConfidence = %v, want 0.3", cfg.MinConfidence)
	}
	if cfg.Budget.Min != 50 || cfg.Budget.Max != 5000 {
		t.Errorf("Budget = %+v, want {50 5000}", cfg.Budget)
	}
	if cfg.TargetROI != 2.0 {
		t.Errorf("TargetROI = %v, want 2.0", cfg.TargetROI)
	}
}

func TestLoadDiscoveryConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("discovery.window_hours", 24)
	viper.Set("discovery.min_confidence", 0.5)
	viper.Set("proposals.budget_min", 100.0)
	viper.Set("proposals.budget_max", 2000.0)
	viper.Set("proposals.target_roi", 3.0)

	cfg, err := LoadDiscoveryConfig()
	if err != nil {
		t.Fatalf("LoadDiscoveryConfig() error = %v", err)
	}
	if cfg.Window != 24*time.Hour {
		t.Errorf("Window = %v, want 24h", cfg.Window)
	}
	if cfg.MinConfidence != 0.5 {
		t.Errorf("MinConfidence = %v, want 0.5", cfg.MinConfidence)
	}
	if cfg.Budget.Min != 100 || cfg.Budget.Max != 2000 {
		t.Errorf("Budget = %+v, want {100 2000}", cfg.Budget)
	}
	if cfg.TargetROI != 3.0 {
		t.Errorf("TargetROI = %v, want 3.0", cfg.TargetROI)
	}
}

func TestLoadDiscoveryConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"confidence above one", "discovery.min_confidence", 1.5},
		{"confidence below zero", "discovery.min_confidence", -0.1},
		{"inverted budget range", "proposals.budget_max", 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			viper.Set(tt.key, tt.value)

			_, err := LoadDiscoveryConfig()
			if !errors.Is(err, common.ErrInvalidConfig) {
				t.Errorf("LoadDiscoveryConfig() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadImprovementConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("improvement.retrain_threshold", 20)
	viper.Set("improvement.retrain_interval_hours", 24)
	viper.Set("improvement.accuracy_floor", 80.0)
	viper.Set("training.epochs", 15)

	cfg := LoadImprovementConfig()
	if cfg.RetrainThreshold != 20 {
		t.Errorf("RetrainThreshold = %d, want 20", cfg.RetrainThreshold)
	}
	if cfg.RetrainInterval != 24*time.Hour {
		t.Errorf("RetrainInterval = %v, want 24h", cfg.RetrainInterval)
	}
	if cfg.AccuracyFloor != 80 {
		t.Errorf("AccuracyFloor = %v, want 80", cfg.AccuracyFloor)
	}
	if cfg.UnderperformScore != 60 {
		t.Errorf("UnderperformScore = %v, want default 60", cfg.UnderperformScore)
	}
	if cfg.Epochs != 15 {
		t.Errorf("Epochs = %d, want 15", cfg.Epochs)
	}
}
