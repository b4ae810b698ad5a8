// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"grimm.is/wavelink/internal/errors"
)

// SyslogConfig describes a remote syslog collector.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int    // defaults to 514
	Protocol string // udp or tcp, defaults to udp
	Tag      string // defaults to wavelink
	Facility int    // defaults to 1 (user-level)
}

// DefaultSyslogConfig returns the disabled default configuration.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "wavelink",
		Facility: 1,
	}
}

// SyslogWriter forwards log lines to a syslog collector as RFC 3164
// messages. Write never blocks on a broken connection; it redials on the
// next call instead.
type SyslogWriter struct {
	cfg  SyslogConfig
	mu   sync.Mutex
	conn net.Conn
}

// NewSyslogWriter connects to the collector described by cfg, applying
// defaults for any zero-valued field.
func NewSyslogWriter(cfg SyslogConfig) (*SyslogWriter, error) {
	if cfg.Host == "" {
		return nil, errors.New(errors.KindValidation, "syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "wavelink"
	}
	if cfg.Facility == 0 {
		cfg.Facility = 1
	}

	w := &SyslogWriter{cfg: cfg}
	if err := w.dial(); err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, "syslog dial failed")
	}
	return w, nil
}

func (w *SyslogWriter) dial() error {
	addr := net.JoinHostPort(w.cfg.Host, fmt.Sprintf("%d", w.cfg.Port))
	conn, err := net.DialTimeout(w.cfg.Protocol, addr, 5*time.Second)
	if err != nil {
		return err
	}
	w.conn = conn
	return nil
}

// Write implements io.Writer. Severity is fixed at notice; the leveled
// logger already filters.
func (w *SyslogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		if err := w.dial(); err != nil {
			return len(p), nil // drop rather than stall the logger
		}
	}

	pri := w.cfg.Facility*8 + 5 // notice
	msg := strings.TrimRight(string(p), "\n")
	line := fmt.Sprintf("<%d>%s %s: %s\n", pri, time.Now().Format(time.Stamp), w.cfg.Tag, msg)
	if _, err := w.conn.Write([]byte(line)); err != nil {
		w.conn.Close()
		w.conn = nil
	}
	return len(p), nil
}

// Close shuts down the collector connection.
func (w *SyslogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}
