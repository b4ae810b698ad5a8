// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package sim provides an in-memory radio driver. It backs the daemon's
// simulation mode and the test suites: failures, latency, scan results,
// readiness sets and the AP client table are all scriptable.
package sim

import (
	"context"
	"sync"
	"time"

	"grimm.is/wavelink/internal/driver"
	"grimm.is/wavelink/internal/errors"
)

// Driver implements driver.Driver against scripted state.
type Driver struct {
	mu sync.Mutex

	stationOn bool
	linked    bool
	info      driver.LinkInfo
	rssi      int

	apOn      bool
	apCfg     driver.APConfig
	apClients []driver.APClient

	networks []driver.Network

	// Scripted outcomes. linkErrs is consumed one entry per Link call;
	// a nil entry means success.
	linkErrs  []error
	unlinkErr error
	selectErr error
	latency   time.Duration

	readyRead   []int
	readyWrite  []int
	readyExcept []int
	readyCh     chan struct{}

	disabled map[string]bool

	linkCalls    int
	unlinkCalls  int
	selectCalls  int
	scanCalls    int
	lastScanSpan time.Duration
}

var _ driver.Driver = (*Driver)(nil)

// New returns a driver with the station radio on and nothing linked.
func New() *Driver {
	return &Driver{
		stationOn: true,
		rssi:      -55,
		info: driver.LinkInfo{
			IP:      "192.168.1.20",
			Netmask: "255.255.255.0",
			Gateway: "192.168.1.1",
			DNS:     "192.168.1.1",
			MAC:     [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		},
		readyCh:  make(chan struct{}),
		disabled: make(map[string]bool),
	}
}

// FailLink scripts the next n Link calls to fail with err.
func (d *Driver) FailLink(err error, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < n; i++ {
		d.linkErrs = append(d.linkErrs, err)
	}
}

// FailUnlink scripts every Unlink call to fail with err.
func (d *Driver) FailUnlink(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unlinkErr = err
}

// FailSelect scripts every Select call to fail with err.
func (d *Driver) FailSelect(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectErr = err
}

// SetNetworks scripts the scan result.
func (d *Driver) SetNetworks(nets []driver.Network) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.networks = nets
}

// SetRSSI scripts the reported signal strength.
func (d *Driver) SetRSSI(rssi int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rssi = rssi
}

// SetInfo scripts the link info reported after a successful Link.
func (d *Driver) SetInfo(info driver.LinkInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.info = info
}

// SetLatency adds a fixed delay to every driver call.
func (d *Driver) SetLatency(latency time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latency = latency
}

// SetClients scripts the AP association table.
func (d *Driver) SetClients(clients []driver.APClient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.apClients = clients
}

// SetReady scripts the descriptor sets Select reports ready and wakes
// any blocked Select call.
func (d *Driver) SetReady(read, write, except []int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readyRead, d.readyWrite, d.readyExcept = read, write, except
	close(d.readyCh)
	d.readyCh = make(chan struct{})
}

// Disable marks a capability as unsupported. Names: link, softap,
// station, select, scan.
func (d *Driver) Disable(capability string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disabled[capability] = true
}

// LinkCalls reports how many times Link was invoked.
func (d *Driver) LinkCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.linkCalls
}

// UnlinkCalls reports how many times Unlink was invoked.
func (d *Driver) UnlinkCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unlinkCalls
}

// SelectCalls reports how many times Select was invoked.
func (d *Driver) SelectCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectCalls
}

// ScanCalls reports how many times Scan was invoked.
func (d *Driver) ScanCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scanCalls
}

// LastScanDuration reports the duration passed to the most recent Scan.
func (d *Driver) LastScanDuration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastScanSpan
}

func (d *Driver) wait(ctx context.Context) error {
	d.mu.Lock()
	latency := d.latency
	d.mu.Unlock()
	if latency == 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) Link(ctx context.Context, ssid string, security driver.Security, credential string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.linkCalls++
	if d.disabled["link"] {
		return driver.Unsupported("link")
	}
	if !d.stationOn {
		return errors.New(errors.KindDriver, "station radio is off")
	}
	if len(d.linkErrs) > 0 {
		err := d.linkErrs[0]
		d.linkErrs = d.linkErrs[1:]
		if err != nil {
			return err
		}
	}
	d.linked = true
	return nil
}

func (d *Driver) Unlink(ctx context.Context) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.unlinkCalls++
	d.linked = false
	return d.unlinkErr
}

func (d *Driver) IsLinked(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.linked
}

func (d *Driver) RSSI(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.linked {
		return 0, errors.New(errors.KindDriver, "no active link")
	}
	return d.rssi, nil
}

func (d *Driver) LinkInfo(ctx context.Context) (driver.LinkInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.linked {
		return driver.LinkInfo{}, errors.New(errors.KindDriver, "no active link")
	}
	return d.info, nil
}

func (d *Driver) SetLinkInfo(ctx context.Context, ip, netmask, gateway, dns string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.linked {
		return errors.New(errors.KindDriver, "no active link")
	}
	if ip != "" {
		d.info.IP = ip
	}
	if netmask != "" {
		d.info.Netmask = netmask
	}
	if gateway != "" {
		d.info.Gateway = gateway
	}
	if dns != "" {
		d.info.DNS = dns
	}
	return nil
}

func (d *Driver) Scan(ctx context.Context, duration time.Duration) ([]driver.Network, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.scanCalls++
	d.lastScanSpan = duration
	if d.disabled["scan"] {
		return nil, driver.Unsupported("scan")
	}
	out := make([]driver.Network, len(d.networks))
	copy(out, d.networks)
	return out, nil
}

func (d *Driver) Select(ctx context.Context, read, write, except []int, timeout *time.Duration) ([]int, []int, []int, error) {
	var deadline <-chan time.Time
	if timeout != nil && *timeout > 0 {
		deadline = time.After(*timeout)
	}

	for {
		d.mu.Lock()
		d.selectCalls++
		if d.disabled["select"] {
			d.mu.Unlock()
			return nil, nil, nil, driver.Unsupported("select")
		}
		if d.selectErr != nil {
			err := d.selectErr
			d.mu.Unlock()
			return nil, nil, nil, err
		}
		r := intersect(d.readyRead, read)
		w := intersect(d.readyWrite, write)
		x := intersect(d.readyExcept, except)
		wake := d.readyCh
		d.mu.Unlock()

		if len(r)+len(w)+len(x) > 0 {
			return r, w, x, nil
		}
		if timeout != nil && *timeout == 0 {
			return r, w, x, nil // non-blocking poll
		}

		select {
		case <-wake:
		case <-deadline:
			return nil, nil, nil, nil
		case <-ctx.Done():
			return nil, nil, nil, ctx.Err()
		}
		// Re-arm counting: the retried evaluation is still one call.
		d.mu.Lock()
		d.selectCalls--
		d.mu.Unlock()
	}
}

// intersect returns the members of ready that were requested, in ready
// order. Ready order is deliberately the driver's own, not the caller's.
func intersect(ready, requested []int) []int {
	want := make(map[int]bool, len(requested))
	for _, fd := range requested {
		want[fd] = true
	}
	var out []int
	for _, fd := range ready {
		if want[fd] {
			out = append(out, fd)
		}
	}
	return out
}

func (d *Driver) SoftAPInit(ctx context.Context, cfg driver.APConfig) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disabled["softap"] {
		return driver.Unsupported("softap")
	}
	d.apOn = true
	d.apCfg = cfg
	return nil
}

func (d *Driver) SoftAPConfig(ctx context.Context, ip, gateway, netmask string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disabled["softap"] {
		return driver.Unsupported("softap")
	}
	if !d.apOn {
		return errors.New(errors.KindDriver, "access point is not active")
	}
	d.apCfg.IP = ip
	d.apCfg.Gateway = gateway
	d.apCfg.Netmask = netmask
	return nil
}

func (d *Driver) SoftAPClients(ctx context.Context) ([]driver.APClient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disabled["softap"] {
		return nil, driver.Unsupported("softap")
	}
	if !d.apOn {
		return nil, errors.New(errors.KindDriver, "access point is not active")
	}
	out := make([]driver.APClient, len(d.apClients))
	copy(out, d.apClients)
	return out, nil
}

func (d *Driver) SoftAPOff(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disabled["softap"] {
		return driver.Unsupported("softap")
	}
	d.apOn = false
	d.apClients = nil
	return nil
}

func (d *Driver) StationOn(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disabled["station"] {
		return driver.Unsupported("station")
	}
	d.stationOn = true
	return nil
}

func (d *Driver) StationOff(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disabled["station"] {
		return driver.Unsupported("station")
	}
	d.stationOn = false
	d.linked = false
	return nil
}
