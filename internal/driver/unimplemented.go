// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package driver

import (
	"context"
	"time"

	"grimm.is/wavelink/internal/errors"
)

// Unsupported returns the canonical error for a capability the driver
// does not offer.
func Unsupported(capability string) error {
	return errors.Errorf(errors.KindUnsupported, "driver does not support %s", capability)
}

// Unimplemented satisfies Driver with every capability reported as
// unsupported. Concrete drivers embed it and override what their
// hardware actually offers.
type Unimplemented struct{}

var _ Driver = Unimplemented{}

func (Unimplemented) Link(context.Context, string, Security, string) error {
	return Unsupported("link")
}

func (Unimplemented) Unlink(context.Context) error {
	return Unsupported("unlink")
}

func (Unimplemented) IsLinked(context.Context) bool {
	return false
}

func (Unimplemented) RSSI(context.Context) (int, error) {
	return 0, Unsupported("rssi")
}

func (Unimplemented) LinkInfo(context.Context) (LinkInfo, error) {
	return LinkInfo{}, Unsupported("link info")
}

func (Unimplemented) SetLinkInfo(context.Context, string, string, string, string) error {
	return Unsupported("set link info")
}

func (Unimplemented) Scan(context.Context, time.Duration) ([]Network, error) {
	return nil, Unsupported("scan")
}

func (Unimplemented) Select(context.Context, []int, []int, []int, *time.Duration) ([]int, []int, []int, error) {
	return nil, nil, nil, Unsupported("select")
}

func (Unimplemented) SoftAPInit(context.Context, APConfig) error {
	return Unsupported("softap init")
}

func (Unimplemented) SoftAPConfig(context.Context, string, string, string) error {
	return Unsupported("softap config")
}

func (Unimplemented) SoftAPClients(context.Context) ([]APClient, error) {
	return nil, Unsupported("softap clients")
}

func (Unimplemented) SoftAPOff(context.Context) error {
	return Unsupported("softap off")
}

func (Unimplemented) StationOn(context.Context) error {
	return Unsupported("station on")
}

func (Unimplemented) StationOff(context.Context) error {
	return Unsupported("station off")
}
