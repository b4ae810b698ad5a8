// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package wifi owns the station link lifecycle and the operating mode of
// a single wireless interface. Exactly one Manager exists per physical
// interface; it is created when the driver is attached and lives for the
// process lifetime.
//
// Mutating operations (Link, TryLink, Unlink, SoftAP*, Station*) are
// serialized against each other. Read accessors may run concurrently
// with each other but are excluded while a mutating operation is inside
// its state transition and driver call.
package wifi

import (
	"context"
	"net"
	"sync"
	"time"

	"grimm.is/wavelink/internal/clock"
	"grimm.is/wavelink/internal/driver"
	"grimm.is/wavelink/internal/errors"
	"grimm.is/wavelink/internal/logging"
	"grimm.is/wavelink/internal/metrics"
)

// State is the station link lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLinking
	StateLinked
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLinking:
		return "linking"
	case StateLinked:
		return "linked"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Mode is the interface operating mode. Station and access point are
// mutually exclusive at the driver level; the manager tracks which one
// the caller asked for and defers illegal combinations to the driver.
type Mode int

const (
	ModeStationOn Mode = iota
	ModeStationOff
	ModeAccessPoint
)

func (m Mode) String() string {
	switch m {
	case ModeStationOn:
		return "station_on"
	case ModeStationOff:
		return "station_off"
	case ModeAccessPoint:
		return "access_point"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the manager.
type Status struct {
	State     State            `json:"-"`
	StateName string           `json:"state"`
	Mode      Mode             `json:"-"`
	ModeName  string           `json:"mode"`
	Attempt   int              `json:"attempt,omitempty"`
	Info      *driver.LinkInfo `json:"link_info,omitempty"`
	LastError string           `json:"last_error,omitempty"`
	AP        *driver.APConfig `json:"softap,omitempty"`
}

// RetryPolicy bounds a TryLink loop. A MaxAttempts below one still
// yields exactly one attempt.
type RetryPolicy struct {
	Security    driver.Security
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy mirrors the defaults of the public surface: WPA2,
// five attempts, two seconds between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Security:    driver.SecurityWPA2,
		MaxAttempts: 5,
		Delay:       2 * time.Second,
	}
}

// DefaultScanDuration bounds Scan when the caller passes no duration.
const DefaultScanDuration = 5 * time.Second

// Options configures a Manager. Zero values fall back to a nop logger,
// the wall clock and no metrics.
type Options struct {
	Logger  *logging.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// Manager is the single owner of one wireless interface.
type Manager struct {
	drv driver.Driver
	log *logging.Logger
	clk clock.Clock
	met *metrics.Metrics

	// opMu serializes mutating operations end to end, including retry
	// delays. mu guards the state fields; it is write-held across each
	// state transition plus its driver call, and released during retry
	// delays so reads observe Linking(attempt).
	opMu sync.Mutex
	mu   sync.RWMutex

	state   State
	attempt int
	info    driver.LinkInfo
	lastErr error

	mode  Mode
	apCfg driver.APConfig

	hub *hub
}

// New attaches a Manager to drv.
func New(drv driver.Driver, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	m := &Manager{
		drv:   drv,
		log:   opts.Logger,
		clk:   opts.Clock,
		met:   opts.Metrics,
		state: StateIdle,
		mode:  ModeStationOn,
		hub:   newHub(opts.Logger),
	}
	m.met.SetLinkState(StateIdle.String())
	return m
}

// Subscribe registers for state and mode change events. The returned
// cancel function must be called to release the subscription.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.hub.subscribe()
}

// Link establishes a station link with the given network. Valid from the
// idle and faulted states. The credential is validated locally before
// the driver is involved.
func (m *Manager) Link(ctx context.Context, ssid string, security driver.Security, credential string) error {
	if err := validateCredential(security, credential); err != nil {
		return err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.state == StateLinked {
		m.mu.Unlock()
		return errors.New(errors.KindInvalidState, "already linked; unlink first")
	}
	m.toLinkingLocked(1)
	m.mu.Unlock()
	m.emit()

	return m.linkAttempt(ctx, ssid, security, credential, true)
}

// TryLink wraps Link in a bounded retry loop. At least one attempt is
// made regardless of the policy. Between failed attempts the calling
// goroutine suspends for the policy delay; the wait is abandoned when
// ctx is cancelled. On exhaustion the error of the last attempt is
// returned, earlier ones are discarded.
func (m *Manager) TryLink(ctx context.Context, ssid, credential string, policy RetryPolicy) error {
	if err := validateCredential(policy.Security, credential); err != nil {
		return err
	}

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.state == StateLinked {
		m.mu.Unlock()
		return errors.New(errors.KindInvalidState, "already linked; unlink first")
	}
	m.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		m.mu.Lock()
		m.toLinkingLocked(attempt)
		m.mu.Unlock()
		m.emit()

		final := attempt == attempts
		err := m.linkAttempt(ctx, ssid, policy.Security, credential, final)
		if err == nil {
			return nil
		}
		lastErr = err
		m.met.LinkRetry()

		if final {
			break
		}
		m.log.Debug("link attempt failed, retrying",
			"ssid", ssid, "attempt", attempt, "delay", policy.Delay, "error", err)
		select {
		case <-m.clk.After(policy.Delay):
		case <-ctx.Done():
			// The caller abandoned the wait. Leave the machine faulted
			// with the last observed driver error rather than dangling
			// in the linking state.
			m.mu.Lock()
			m.toFaultedLocked(lastErr)
			m.mu.Unlock()
			m.emit()
			return errors.Wrap(ctx.Err(), errors.KindTimeout, "link retry abandoned")
		}
	}
	return lastErr
}

// linkAttempt performs one driver link call. On success the machine
// moves to linked with the driver-reported info. On failure it moves to
// faulted only when the attempt is final; intermediate retry failures
// keep the linking state.
func (m *Manager) linkAttempt(ctx context.Context, ssid string, security driver.Security, credential string, final bool) error {
	m.mu.Lock()
	m.met.LinkAttempt()
	err := m.drv.Link(ctx, ssid, security, credential)
	if err != nil {
		m.met.LinkFailure()
		if final {
			m.toFaultedLocked(err)
		}
		m.mu.Unlock()
		if final {
			m.emit()
		}
		return err
	}

	info, ierr := m.drv.LinkInfo(ctx)
	if ierr != nil {
		// The link stands; report it with an empty snapshot.
		info = driver.LinkInfo{}
	}
	m.state = StateLinked
	m.info = info
	m.lastErr = nil
	m.mu.Unlock()

	if ierr != nil {
		m.log.Warn("link established but info query failed", "ssid", ssid, "error", ierr)
	}
	m.log.Info("station linked", "ssid", ssid, "security", security.String(), "ip", info.IP)
	m.met.SetLinkState(StateLinked.String())
	m.emit()
	return nil
}

// Unlink disconnects from the current network. The state is forced to
// idle regardless of the driver outcome: a failed driver unlink is
// reported as a warning, never as an error, so the machine can never
// stay linked to a connection the application no longer controls.
func (m *Manager) Unlink(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	err := m.drv.Unlink(ctx)
	m.toIdleLocked()
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("driver unlink failed, forcing idle state", "error", err)
	} else {
		m.log.Info("station unlinked")
	}
	m.met.SetLinkState(StateIdle.String())
	m.emit()
	return nil
}

// IsLinked reports whether the machine holds an established link.
func (m *Manager) IsLinked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateLinked
}

// RSSI returns the signal strength of the established link.
func (m *Manager) RSSI(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateLinked {
		return 0, errors.New(errors.KindNotLinked, "not linked")
	}
	return m.drv.RSSI(ctx)
}

// LinkInfo returns the snapshot captured when the link came up.
func (m *Manager) LinkInfo() (driver.LinkInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateLinked {
		return driver.LinkInfo{}, errors.New(errors.KindNotLinked, "not linked")
	}
	return m.info, nil
}

// SetLinkInfo overrides interface addressing while linked. An all-zero
// IPv4 address selects the driver default for that field.
func (m *Manager) SetLinkInfo(ctx context.Context, ip, netmask, gateway, dns string) error {
	nip, err := normalizeAddr("ip", ip)
	if err != nil {
		return err
	}
	nmask, err := normalizeAddr("netmask", netmask)
	if err != nil {
		return err
	}
	ngw, err := normalizeAddr("gateway", gateway)
	if err != nil {
		return err
	}
	ndns, err := normalizeAddr("dns", dns)
	if err != nil {
		return err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateLinked {
		return errors.New(errors.KindNotLinked, "not linked")
	}
	if err := m.drv.SetLinkInfo(ctx, nip, nmask, ngw, ndns); err != nil {
		return err
	}

	// Prefer the driver's own view of the result; fall back to patching
	// the held snapshot when the driver cannot report it.
	if info, ierr := m.drv.LinkInfo(ctx); ierr == nil {
		m.info = info
	} else {
		patch := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		patch(&m.info.IP, nip)
		patch(&m.info.Netmask, nmask)
		patch(&m.info.Gateway, ngw)
		patch(&m.info.DNS, ndns)
	}
	return nil
}

// Scan lists reachable networks. A non-positive duration selects the
// default scan window.
func (m *Manager) Scan(ctx context.Context, duration time.Duration) ([]driver.Network, error) {
	if duration <= 0 {
		duration = DefaultScanDuration
	}
	m.met.Scan()
	return m.drv.Scan(ctx, duration)
}

// Status returns a snapshot of the link state and operating mode.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		State:     m.state,
		StateName: m.state.String(),
		Mode:      m.mode,
		ModeName:  m.mode.String(),
	}
	if m.state == StateLinking || m.state == StateFaulted {
		st.Attempt = m.attempt
	}
	if m.state == StateLinked {
		info := m.info
		st.Info = &info
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	if m.mode == ModeAccessPoint {
		ap := m.apCfg
		st.AP = &ap
	}
	return st
}

// InterfaceActive reports whether any interface mode is up. The
// readiness multiplexer refuses to poll when it is not.
func (m *Manager) InterfaceActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode != ModeStationOff
}

// Driver exposes the attached driver to collaborating components that
// share this interface, such as the readiness poller.
func (m *Manager) Driver() driver.Driver {
	return m.drv
}

func (m *Manager) toLinkingLocked(attempt int) {
	m.state = StateLinking
	m.attempt = attempt
	m.met.SetLinkState(StateLinking.String())
}

func (m *Manager) toFaultedLocked(err error) {
	m.state = StateFaulted
	m.lastErr = err
	m.info = driver.LinkInfo{}
	m.met.SetLinkState(StateFaulted.String())
}

func (m *Manager) toIdleLocked() {
	m.state = StateIdle
	m.attempt = 0
	m.lastErr = nil
	m.info = driver.LinkInfo{}
}

// emit publishes the current snapshot to subscribers. Callers must not
// hold mu.
func (m *Manager) emit() {
	st := m.Status()
	m.hub.publish(Event{
		State:   st.StateName,
		Mode:    st.ModeName,
		Attempt: st.Attempt,
		Error:   st.LastError,
		Time:    m.clk.Now(),
	})
}

func validateCredential(security driver.Security, credential string) error {
	if security.RequiresCredential() && credential == "" {
		return errors.Errorf(errors.KindValidation, "security %s requires a credential", security)
	}
	return nil
}

// normalizeAddr maps the all-zero address to the empty string, which the
// driver contract reads as "use the driver default". Anything else must
// be a literal IPv4 address.
func normalizeAddr(field, s string) (string, error) {
	if s == "" || s == "0.0.0.0" {
		return "", nil
	}
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return "", errors.Errorf(errors.KindValidation, "invalid %s address %q", field, s)
	}
	return s, nil
}
