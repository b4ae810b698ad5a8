// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package driver defines the southbound contract a radio driver must
// satisfy. The link manager never talks to hardware directly; it holds a
// single Driver handle attached at startup and calls through it.
//
// A driver is not required to offer every capability. Methods the
// hardware does not support must return an error of kind unsupported so
// callers can tell "not offered" apart from "offered and failed".
// Embedding Unimplemented gives a driver that behavior for free.
package driver

import (
	"context"
	"time"
)

// Security identifies the authentication mode of a network.
type Security int

const (
	SecurityOpen Security = iota
	SecurityWEP
	SecurityWPA
	SecurityWPA2
)

func (s Security) String() string {
	switch s {
	case SecurityOpen:
		return "open"
	case SecurityWEP:
		return "wep"
	case SecurityWPA:
		return "wpa"
	case SecurityWPA2:
		return "wpa2"
	default:
		return "unknown"
	}
}

// RequiresCredential reports whether the mode needs a passphrase or key.
func (s Security) RequiresCredential() bool {
	return s != SecurityOpen
}

// LinkInfo is the driver-reported snapshot of an established station
// link. Values are immutable once returned.
type LinkInfo struct {
	IP      string  `json:"ip"`
	Netmask string  `json:"netmask"`
	Gateway string  `json:"gateway"`
	DNS     string  `json:"dns"`
	MAC     [6]byte `json:"mac"`
}

// Network describes one entry of a scan result.
type Network struct {
	SSID     string   `json:"ssid"`
	Security Security `json:"security"`
	RSSI     int      `json:"rssi"`
	BSSID    [6]byte  `json:"bssid"`
}

// APClient is one station currently associated with the soft AP.
type APClient struct {
	IP  string  `json:"ip"`
	MAC [6]byte `json:"mac"`
}

// APConfig holds soft access point parameters.
type APConfig struct {
	SSID       string   `json:"ssid"`
	Security   Security `json:"security"`
	Credential string   `json:"-"`
	MaxConn    int      `json:"max_conn"`
	IP         string   `json:"ip"`
	Gateway    string   `json:"gateway"`
	Netmask    string   `json:"netmask"`
}

// Driver is the capability set consumed by the link manager.
//
// Select's timeout pointer distinguishes a non-blocking poll (zero
// duration) from an indefinite block (nil). The three returned slices
// hold the ready subset of each descriptor set, in driver order; callers
// must not rely on that order.
type Driver interface {
	// Station link lifecycle.
	Link(ctx context.Context, ssid string, security Security, credential string) error
	Unlink(ctx context.Context) error
	IsLinked(ctx context.Context) bool
	RSSI(ctx context.Context) (int, error)
	LinkInfo(ctx context.Context) (LinkInfo, error)
	SetLinkInfo(ctx context.Context, ip, netmask, gateway, dns string) error

	// Discovery.
	Scan(ctx context.Context, duration time.Duration) ([]Network, error)

	// Readiness over driver-native descriptors.
	Select(ctx context.Context, read, write, except []int, timeout *time.Duration) (r, w, x []int, err error)

	// Soft access point control.
	SoftAPInit(ctx context.Context, cfg APConfig) error
	SoftAPConfig(ctx context.Context, ip, gateway, netmask string) error
	SoftAPClients(ctx context.Context) ([]APClient, error)
	SoftAPOff(ctx context.Context) error

	// Station radio power, independent of any established link.
	StationOn(ctx context.Context) error
	StationOff(ctx context.Context) error
}
