// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/bbnote/stlinkprobe/probe"
)

// Config selects a probe and the way the driver talks to it.
type Config struct {
	Serial            string        `yaml:"serial,omitempty"`
	VendorID          uint16        `yaml:"vendor_id,omitempty"`
	ProductID         uint16        `yaml:"product_id,omitempty"`
	Protocol          string        `yaml:"protocol"`
	SpeedKhz          uint32        `yaml:"speed_khz,omitempty"`
	Timeout           time.Duration `yaml:"timeout"`
	ConnectUnderReset bool          `yaml:"connect_under_reset"`
	LogLevel          string        `yaml:"log_level,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Protocol: "swd",
		Timeout:  defaultUsbTimeout,
	}
}

// LoadConfig reads a YAML config file and fills in defaults for omitted
// fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Protocol == "" {
		c.Protocol = "swd"
	}
	if c.Timeout == 0 {
		c.Timeout = defaultUsbTimeout
	}
}

func (c *Config) Validate() error {
	if _, err := probe.ParseWireProtocol(c.Protocol); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}

	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}

	return nil
}

// ProbeInfo is the probe selection described by the config.
func (c *Config) ProbeInfo() probe.ProbeInfo {
	return probe.ProbeInfo{
		Identifier:   stLinkName,
		VendorID:     c.VendorID,
		ProductID:    c.ProductID,
		SerialNumber: c.Serial,
	}
}
