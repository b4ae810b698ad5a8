// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errors

import (
	"errors"
	"testing"
)

func TestError(t *testing.T) {
	err := New(KindValidation, "credential required")
	if err.Error() != "credential required" {
		t.Errorf("expected 'credential required', got '%s'", err.Error())
	}

	wrapped := Wrap(err, KindInternal, "link rejected")
	if wrapped.Error() != "link rejected: credential required" {
		t.Errorf("expected 'link rejected: credential required', got '%s'", wrapped.Error())
	}
}

func TestGetKind(t *testing.T) {
	err := New(KindNotLinked, "not linked")
	if GetKind(err) != KindNotLinked {
		t.Errorf("expected KindNotLinked, got %v", GetKind(err))
	}

	wrapped := Wrap(err, KindDriver, "driver fault")
	if GetKind(wrapped) != KindDriver {
		t.Errorf("expected KindDriver, got %v", GetKind(wrapped))
	}

	if GetKind(errors.New("std error")) != KindUnknown {
		t.Errorf("expected KindUnknown, got %v", GetKind(errors.New("std error")))
	}
}

func TestIsKind(t *testing.T) {
	err := New(KindUnsupported, "softap not offered")
	if !IsKind(err, KindUnsupported) {
		t.Error("expected IsKind to match KindUnsupported")
	}
	if IsKind(err, KindDriver) {
		t.Error("expected IsKind to reject KindDriver")
	}
	if IsKind(nil, KindUnsupported) {
		t.Error("nil error must not match any kind")
	}
}

func TestAttributes(t *testing.T) {
	err := New(KindValidation, "credential required")
	err = Attr(err, "ssid", "lab-net")
	err = Attr(err, "security", "wpa2")

	attrs := GetAttributes(err)
	if attrs["ssid"] != "lab-net" {
		t.Errorf("expected lab-net, got %v", attrs["ssid"])
	}
	if attrs["security"] != "wpa2" {
		t.Errorf("expected wpa2, got %v", attrs["security"])
	}

	wrapped := Wrap(err, KindInternal, "failed")
	wrapped = Attr(wrapped, "operation", "link")

	allAttrs := GetAttributes(wrapped)
	if allAttrs["ssid"] != "lab-net" || allAttrs["operation"] != "link" {
		t.Errorf("missing attributes: %v", allAttrs)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindUnknown:      "unknown",
		KindInternal:     "internal",
		KindValidation:   "validation",
		KindUnsupported:  "unsupported",
		KindNotLinked:    "not_linked",
		KindInvalidState: "invalid_state",
		KindDriver:       "driver",
		KindUnavailable:  "unavailable",
		KindTimeout:      "timeout",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, KindDriver, "x") != nil {
		t.Error("Wrap(nil) must return nil")
	}
	if Wrapf(nil, KindDriver, "x %d", 1) != nil {
		t.Error("Wrapf(nil) must return nil")
	}
	if Attr(nil, "k", "v") != nil {
		t.Error("Attr(nil) must return nil")
	}
}
