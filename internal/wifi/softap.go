// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"context"

	"grimm.is/wavelink/internal/driver"
	"grimm.is/wavelink/internal/errors"
)

// Soft AP subnet defaults applied by SoftAPInit and SoftAPConfig when
// the caller omits an argument.
const (
	DefaultAPAddress = "192.168.0.1"
	DefaultAPGateway = "192.168.0.1"
	DefaultAPNetmask = "255.255.255.0"
	DefaultAPMaxConn = 4
)

// SoftAPInit switches the interface into access point mode. Credential
// validation happens locally; a driver without AP capability surfaces as
// an unsupported-kind error, distinct from validation failures.
func (m *Manager) SoftAPInit(ctx context.Context, ssid string, security driver.Security, credential string, maxConn int) error {
	if ssid == "" {
		return errors.New(errors.KindValidation, "softap ssid must not be empty")
	}
	if err := validateCredential(security, credential); err != nil {
		return err
	}
	if maxConn <= 0 {
		maxConn = DefaultAPMaxConn
	}

	cfg := driver.APConfig{
		SSID:       ssid,
		Security:   security,
		Credential: credential,
		MaxConn:    maxConn,
		IP:         DefaultAPAddress,
		Gateway:    DefaultAPGateway,
		Netmask:    DefaultAPNetmask,
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	err := m.drv.SoftAPInit(ctx, cfg)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.mode = ModeAccessPoint
	m.apCfg = cfg
	m.mu.Unlock()

	m.log.Info("access point enabled", "ssid", ssid, "security", security.String(), "max_conn", maxConn)
	m.met.SetMode(ModeAccessPoint.String())
	m.emit()
	return nil
}

// SoftAPConfig updates the AP subnet parameters. Valid only while the
// access point is active. Omitted arguments take the documented
// defaults.
func (m *Manager) SoftAPConfig(ctx context.Context, ip, gateway, netmask string) error {
	if ip == "" {
		ip = DefaultAPAddress
	}
	if gateway == "" {
		gateway = DefaultAPGateway
	}
	if netmask == "" {
		netmask = DefaultAPNetmask
	}
	for field, v := range map[string]string{"ip": ip, "gateway": gateway, "netmask": netmask} {
		if _, err := normalizeAddr(field, v); err != nil {
			return err
		}
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeAccessPoint {
		return errors.New(errors.KindInvalidState, "access point is not active")
	}
	if err := m.drv.SoftAPConfig(ctx, ip, gateway, netmask); err != nil {
		return err
	}
	m.apCfg.IP = ip
	m.apCfg.Gateway = gateway
	m.apCfg.Netmask = netmask
	return nil
}

// SoftAPClients lists the stations currently associated with the AP. No
// clients is an empty list, not an error.
func (m *Manager) SoftAPClients(ctx context.Context) ([]driver.APClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.mode != ModeAccessPoint {
		return nil, errors.New(errors.KindInvalidState, "access point is not active")
	}
	clients, err := m.drv.SoftAPClients(ctx)
	if err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []driver.APClient{}
	}
	return clients, nil
}

// SoftAPOff disables the access point, leaving the interface in
// station-off mode. Re-enabling the station radio is a separate,
// explicit call.
func (m *Manager) SoftAPOff(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.mode != ModeAccessPoint {
		m.mu.Unlock()
		return errors.New(errors.KindInvalidState, "access point is not active")
	}
	if err := m.drv.SoftAPOff(ctx); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mode = ModeStationOff
	m.apCfg = driver.APConfig{}
	m.mu.Unlock()

	m.log.Info("access point disabled")
	m.met.SetMode(ModeStationOff.String())
	m.emit()
	return nil
}

// StationOn powers the station-mode radio.
func (m *Manager) StationOn(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if err := m.drv.StationOn(ctx); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mode = ModeStationOn
	m.mu.Unlock()

	m.log.Info("station radio enabled")
	m.met.SetMode(ModeStationOn.String())
	m.emit()
	return nil
}

// StationOff powers down the station-mode radio. An established link is
// implicitly unlinked first so no state refers to a powered-down radio;
// that holds even when the driver's own power-off call fails.
func (m *Manager) StationOff(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	wasLinked := m.state == StateLinked
	if wasLinked {
		if err := m.drv.Unlink(ctx); err != nil {
			m.log.Warn("implicit unlink before station off failed", "error", err)
		}
		m.toIdleLocked()
	}
	err := m.drv.StationOff(ctx)
	if err == nil {
		m.mode = ModeStationOff
	}
	m.mu.Unlock()

	if wasLinked {
		m.met.SetLinkState(StateIdle.String())
	}
	if err != nil {
		m.emit()
		return err
	}
	m.log.Info("station radio disabled")
	m.met.SetMode(ModeStationOff.String())
	m.emit()
	return nil
}
