// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netselect multiplexes readiness across sockets bound to the
// wireless interface. It translates application socket handles to
// driver-native descriptors, issues a single driver select call, and
// maps the ready descriptors back to the original handles.
//
// The layer is orthogonal to the link state machine: it does not care
// whether a link is up, only that some interface mode is active.
package netselect

import (
	"context"
	"time"

	"grimm.is/wavelink/internal/driver"
	"grimm.is/wavelink/internal/errors"
	"grimm.is/wavelink/internal/metrics"
)

// Socket is an application-level handle that can name its driver-native
// descriptor. The mapping must be stable for the duration of a poll
// call; the descriptor uniquely identifies the handle.
type Socket interface {
	Fileno() int
}

// Request names the handles to watch. The three sequences are disjoint
// interest sets; any of them may be empty. A nil Timeout blocks until
// readiness or a driver error; a zero Timeout is a non-blocking poll.
type Request struct {
	Read    []Socket
	Write   []Socket
	Except  []Socket
	Timeout *time.Duration
}

// Result holds the ready subset of each input sequence, preserving the
// relative order of the request. Callers that use input position as
// priority can rely on that ordering.
type Result struct {
	Read   []Socket
	Write  []Socket
	Except []Socket
}

// ActiveFunc reports whether the wireless interface is usable. The
// poller refuses to operate when it returns false.
type ActiveFunc func() bool

// Poller multiplexes readiness queries over one driver.
type Poller struct {
	drv    driver.Driver
	active ActiveFunc
	met    *metrics.Metrics
}

// NewPoller builds a Poller. active may be nil, in which case the
// interface is assumed up.
func NewPoller(drv driver.Driver, active ActiveFunc, met *metrics.Metrics) *Poller {
	return &Poller{drv: drv, active: active, met: met}
}

// Poll asks the driver which of the requested handles are ready within
// the request's wait bound. Handles that become invalid mid-call are the
// driver's to detect; its error is propagated, never silently dropped.
func (p *Poller) Poll(ctx context.Context, req Request) (Result, error) {
	if p.active != nil && !p.active() {
		return Result{}, errors.New(errors.KindUnavailable, "no active wireless interface")
	}

	p.met.Poll()

	readFDs := filenos(req.Read)
	writeFDs := filenos(req.Write)
	exceptFDs := filenos(req.Except)

	r, w, x, err := p.drv.Select(ctx, readFDs, writeFDs, exceptFDs, req.Timeout)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Read:   readySubset(req.Read, r),
		Write:  readySubset(req.Write, w),
		Except: readySubset(req.Except, x),
	}, nil
}

func filenos(socks []Socket) []int {
	if len(socks) == 0 {
		return nil
	}
	fds := make([]int, len(socks))
	for i, s := range socks {
		fds[i] = s.Fileno()
	}
	return fds
}

// readySubset filters in to the handles whose descriptor appears in
// ready, preserving the order of in rather than the driver's order.
func readySubset(in []Socket, ready []int) []Socket {
	if len(in) == 0 || len(ready) == 0 {
		return nil
	}
	set := make(map[int]bool, len(ready))
	for _, fd := range ready {
		set[fd] = true
	}
	var out []Socket
	for _, s := range in {
		if set[s.Fileno()] {
			out = append(out, s)
		}
	}
	return out
}
