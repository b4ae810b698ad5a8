// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command wavelinkd manages the station link and operating mode of one
// wireless interface and exposes the control API over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"grimm.is/wavelink/internal/config"
	"grimm.is/wavelink/internal/ctl"
	"grimm.is/wavelink/internal/driver"
	"grimm.is/wavelink/internal/driver/sim"
	"grimm.is/wavelink/internal/logging"
	"grimm.is/wavelink/internal/metrics"
	"grimm.is/wavelink/internal/wifi"
)

func main() {
	configPath := flag.String("config", "", "Path to HCL config file")
	listenAddr := flag.String("listen", "", "Control API listen address (overrides config)")
	flag.Parse()

	if err := run(*configPath, *listenAddr); err != nil {
		fmt.Fprintf(os.Stderr, "wavelinkd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, listenAddr string) error {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if listenAddr != "" {
		cfg.API.Listen = listenAddr
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Syslog: logging.SyslogConfig{
			Enabled:  cfg.Log.SyslogHost != "",
			Host:     cfg.Log.SyslogHost,
			Port:     cfg.Log.SyslogPort,
			Protocol: cfg.Log.SyslogProtocol,
			Tag:      "wavelinkd",
		},
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	drv := newDriver(cfg)
	met := metrics.New()
	mgr := wifi.New(drv, wifi.Options{
		Logger:  logger.With("component", "wifi"),
		Metrics: met,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("wavelinkd starting",
		"interface", cfg.Interface.Name,
		"driver", cfg.Interface.Driver,
	)

	if sta := cfg.Station; sta != nil && sta.AutoJoin {
		go autoJoin(ctx, mgr, logger, sta)
	}
	if ap := cfg.SoftAP; ap != nil {
		if err := bringUpSoftAP(ctx, mgr, ap); err != nil {
			return err
		}
		logger.Info("access point up", "ssid", ap.SSID)
	}

	server := ctl.NewServer(ctl.Options{
		Manager: mgr,
		Logger:  logger.With("component", "api"),
		Metrics: met,
	})
	if err := server.ListenAndServe(ctx, cfg.API.Listen); err != nil {
		return err
	}

	logger.Info("wavelinkd stopped")
	return nil
}

// newDriver builds the configured driver. The simulator is the only
// in-tree driver; hardware backends attach through the same interface.
func newDriver(cfg *config.Config) driver.Driver {
	drv := sim.New()
	drv.SetNetworks([]driver.Network{
		{SSID: "backhaul", Security: driver.SecurityWPA2, RSSI: -52},
		{SSID: "guest", Security: driver.SecurityOpen, RSSI: -68},
	})
	return drv
}

// autoJoin runs the bounded retry loop for the configured station
// network. Failure leaves the manager faulted; the operator relinks
// through the API.
func autoJoin(ctx context.Context, mgr *wifi.Manager, logger *logging.Logger, sta *config.StationConfig) {
	security, err := config.ParseSecurity(sta.Security)
	if err != nil {
		logger.Error("invalid station security", "error", err)
		return
	}
	policy := wifi.RetryPolicy{
		Security:    security,
		MaxAttempts: sta.Attempts,
		Delay:       sta.RetryDelay(),
	}
	if err := mgr.TryLink(ctx, sta.SSID, sta.Credential, policy); err != nil {
		logger.Error("auto join failed", "ssid", sta.SSID, "error", err)
		return
	}
	logger.Info("auto join succeeded", "ssid", sta.SSID)
}

func bringUpSoftAP(ctx context.Context, mgr *wifi.Manager, ap *config.SoftAPConfig) error {
	security, err := config.ParseSecurity(ap.Security)
	if err != nil {
		return err
	}
	if err := mgr.SoftAPInit(ctx, ap.SSID, security, ap.Credential, ap.MaxConn); err != nil {
		return err
	}
	if ap.IP != "" || ap.Gateway != "" || ap.Netmask != "" {
		return mgr.SoftAPConfig(ctx, ap.IP, ap.Gateway, ap.Netmask)
	}
	return nil
}
