// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads and validates the wavelinkd HCL configuration.
package config

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"grimm.is/wavelink/internal/driver"
	"grimm.is/wavelink/internal/errors"
)

// Config is the top-level daemon configuration.
type Config struct {
	Interface *InterfaceConfig `hcl:"interface,block"`
	Station   *StationConfig   `hcl:"station,block"`
	SoftAP    *SoftAPConfig    `hcl:"softap,block"`
	API       *APIConfig       `hcl:"api,block"`
	Log       *LogConfig       `hcl:"log,block"`
}

// InterfaceConfig names the wireless interface and its driver.
type InterfaceConfig struct {
	Name   string `hcl:"name,label"`
	Driver string `hcl:"driver,optional"`
}

// StationConfig describes the network the daemon joins at startup when
// auto_join is set.
type StationConfig struct {
	SSID       string `hcl:"ssid"`
	Security   string `hcl:"security,optional"`
	Credential string `hcl:"credential,optional"`
	Attempts   int    `hcl:"attempts,optional"`
	DelayMs    int    `hcl:"delay_ms,optional"`
	AutoJoin   bool   `hcl:"auto_join,optional"`
}

// SoftAPConfig describes an access point brought up at startup.
type SoftAPConfig struct {
	SSID       string `hcl:"ssid"`
	Security   string `hcl:"security,optional"`
	Credential string `hcl:"credential,optional"`
	MaxConn    int    `hcl:"max_conn,optional"`
	IP         string `hcl:"ip,optional"`
	Gateway    string `hcl:"gateway,optional"`
	Netmask    string `hcl:"netmask,optional"`
}

// APIConfig configures the control API listener.
type APIConfig struct {
	Listen string `hcl:"listen,optional"`
}

// LogConfig configures the daemon logger.
type LogConfig struct {
	Level      string `hcl:"level,optional"`
	File       string `hcl:"file,optional"`
	MaxSizeMB  int    `hcl:"max_size_mb,optional"`
	MaxBackups int    `hcl:"max_backups,optional"`
	MaxAgeDays int    `hcl:"max_age_days,optional"`

	SyslogHost     string `hcl:"syslog_host,optional"`
	SyslogPort     int    `hcl:"syslog_port,optional"`
	SyslogProtocol string `hcl:"syslog_protocol,optional"`
}

// DefaultListen is the control API address used when none is configured.
const DefaultListen = "127.0.0.1:9074"

// Default returns a runnable configuration: sim driver, local API, info
// logging, no preconfigured networks.
func Default() *Config {
	return &Config{
		Interface: &InterfaceConfig{Name: "wlan0", Driver: "sim"},
		API:       &APIConfig{Listen: DefaultListen},
		Log:       &LogConfig{Level: "info"},
	}
}

// Load reads, parses and validates an HCL configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "read config %s", path)
	}
	return Parse(data, path)
}

// Parse decodes HCL source and validates the result. Unset blocks take
// their defaults.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(diags, errors.KindValidation, "parse config")
	}

	cfg := &Config{}
	if diags := gohcl.DecodeBody(file.Body, evalContext(), cfg); diags.HasErrors() {
		return nil, errors.Wrap(diags, errors.KindValidation, "decode config")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// evalContext exposes process environment variables to expressions as
// env.NAME, so credentials can stay out of the config file.
func evalContext() *hcl.EvalContext {
	vals := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vals[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vals),
		},
	}
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Interface == nil {
		c.Interface = def.Interface
	}
	if c.Interface.Driver == "" {
		c.Interface.Driver = "sim"
	}
	if c.API == nil {
		c.API = def.API
	}
	if c.API.Listen == "" {
		c.API.Listen = DefaultListen
	}
	if c.Log == nil {
		c.Log = def.Log
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Station != nil {
		if c.Station.Security == "" {
			c.Station.Security = "wpa2"
		}
		if c.Station.Attempts == 0 {
			c.Station.Attempts = 5
		}
		if c.Station.DelayMs == 0 {
			c.Station.DelayMs = 2000
		}
	}
	if c.SoftAP != nil && c.SoftAP.Security == "" {
		c.SoftAP.Security = "open"
	}
}

// Validate checks cross-field constraints. It assumes defaults have been
// applied.
func (c *Config) Validate() error {
	if c.Interface == nil || c.Interface.Name == "" {
		return errors.New(errors.KindValidation, "interface block with a name is required")
	}
	if c.Interface.Driver != "sim" {
		return errors.Errorf(errors.KindValidation, "unknown driver %q", c.Interface.Driver)
	}
	if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
		return errors.Wrapf(err, errors.KindValidation, "invalid api listen address %q", c.API.Listen)
	}

	if c.Station != nil {
		if c.Station.SSID == "" {
			return errors.New(errors.KindValidation, "station ssid must not be empty")
		}
		sec, err := ParseSecurity(c.Station.Security)
		if err != nil {
			return err
		}
		if sec.RequiresCredential() && c.Station.Credential == "" {
			return errors.Errorf(errors.KindValidation,
				"station %q: security %s requires a credential", c.Station.SSID, sec)
		}
	}

	if c.SoftAP != nil {
		if c.SoftAP.SSID == "" {
			return errors.New(errors.KindValidation, "softap ssid must not be empty")
		}
		sec, err := ParseSecurity(c.SoftAP.Security)
		if err != nil {
			return err
		}
		if sec.RequiresCredential() && c.SoftAP.Credential == "" {
			return errors.Errorf(errors.KindValidation,
				"softap %q: security %s requires a credential", c.SoftAP.SSID, sec)
		}
	}
	return nil
}

// RetryDelay returns the configured inter-attempt delay.
func (s *StationConfig) RetryDelay() time.Duration {
	return time.Duration(s.DelayMs) * time.Millisecond
}

// ParseSecurity maps a config or API string to a security mode. Matching
// is case-insensitive.
func ParseSecurity(s string) (driver.Security, error) {
	switch strings.ToLower(s) {
	case "open", "none", "":
		return driver.SecurityOpen, nil
	case "wep":
		return driver.SecurityWEP, nil
	case "wpa":
		return driver.SecurityWPA, nil
	case "wpa2":
		return driver.SecurityWPA2, nil
	default:
		return 0, errors.Errorf(errors.KindValidation, "unknown security mode %q", s)
	}
}
