// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package clock

import (
	"testing"
	"time"
)

func TestMockClockNow(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clk := NewMockClock(start)

	if !clk.Now().Equal(start) {
		t.Errorf("expected %v, got %v", start, clk.Now())
	}

	clk.Advance(90 * time.Second)
	if got := clk.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("expected advance of 90s, got %v", got)
	}
}

func TestMockClockAfter(t *testing.T) {
	clk := NewMockClock(time.Unix(0, 0))
	ch := clk.After(2 * time.Second)

	select {
	case <-ch:
		t.Fatal("After fired before the clock advanced")
	default:
	}

	clk.Advance(1 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	clk.Advance(1 * time.Second)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("After did not fire at its deadline")
	}
}

func TestMockClockAfterZero(t *testing.T) {
	clk := NewMockClock(time.Unix(0, 0))
	select {
	case <-clk.After(0):
	default:
		t.Fatal("After(0) must fire immediately")
	}
}

func TestMockClockWaiters(t *testing.T) {
	clk := NewMockClock(time.Unix(0, 0))
	clk.After(time.Second)
	clk.After(2 * time.Second)

	if n := clk.Waiters(); n != 2 {
		t.Errorf("expected 2 waiters, got %d", n)
	}
	clk.Advance(time.Second)
	if n := clk.Waiters(); n != 1 {
		t.Errorf("expected 1 waiter after advance, got %d", n)
	}
}

func TestRealClock(t *testing.T) {
	clk := New()
	before := time.Now()
	now := clk.Now()
	if now.Before(before.Add(-time.Second)) {
		t.Errorf("real clock far in the past: %v", now)
	}
}
