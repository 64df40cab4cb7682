package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opsdeck/remote-broker/pkg/ice"
	"github.com/opsdeck/remote-broker/pkg/tenancy"
)

// BrokerConfig holds runtime broker configuration.
type BrokerConfig struct {
	TenancyMode     tenancy.TenancyMode `yaml:"tenancyMode"`
	TokenTTLMinutes int                 `yaml:"tokenTtlMinutes"`
	ICE             ice.Config          `yaml:"ice"`
}

// LoadBrokerConfig loads broker configuration from a YAML file. If the
// file does not exist, default configuration is returned. TURN settings
// from the environment override empty file values.
func LoadBrokerConfig(path string) (*BrokerConfig, error) {
	cfg := DefaultBrokerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ICE = mergeICE(cfg.ICE, ice.ConfigFromEnv())
			return cfg, nil
		}
		return nil, fmt.Errorf("read broker config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse broker config: %w", err)
	}

	if cfg.TokenTTLMinutes <= 0 {
		cfg.TokenTTLMinutes = DefaultBrokerConfig().TokenTTLMinutes
	}
	if cfg.TenancyMode == "" {
		cfg.TenancyMode = tenancy.ModeOrg
	}
	cfg.ICE = mergeICE(cfg.ICE, ice.ConfigFromEnv())
	return cfg, nil
}

// DefaultBrokerConfig returns the default broker configuration.
func DefaultBrokerConfig() *BrokerConfig {
	return &BrokerConfig{
		TenancyMode:     tenancy.ModeOrg,
		TokenTTLMinutes: 60,
	}
}

// mergeICE fills empty file-sourced TURN fields from the environment.
func mergeICE(file, env ice.Config) ice.Config {
	if file.TURNURL == "" {
		return env
	}
	return file
}
