// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package driver

import (
	"context"
	"testing"

	"grimm.is/wavelink/internal/errors"
)

func TestSecurityString(t *testing.T) {
	cases := map[Security]string{
		SecurityOpen: "open",
		SecurityWEP:  "wep",
		SecurityWPA:  "wpa",
		SecurityWPA2: "wpa2",
		Security(99): "unknown",
	}
	for sec, want := range cases {
		if sec.String() != want {
			t.Errorf("Security(%d).String() = %q, want %q", sec, sec.String(), want)
		}
	}
}

func TestRequiresCredential(t *testing.T) {
	if SecurityOpen.RequiresCredential() {
		t.Error("open networks must not require a credential")
	}
	for _, sec := range []Security{SecurityWEP, SecurityWPA, SecurityWPA2} {
		if !sec.RequiresCredential() {
			t.Errorf("%v must require a credential", sec)
		}
	}
}

func TestUnimplementedReportsUnsupported(t *testing.T) {
	var d Driver = Unimplemented{}
	ctx := context.Background()

	checks := map[string]error{
		"link":         d.Link(ctx, "net", SecurityOpen, ""),
		"unlink":       d.Unlink(ctx),
		"set":          d.SetLinkInfo(ctx, "", "", "", ""),
		"softap init":  d.SoftAPInit(ctx, APConfig{}),
		"softap off":   d.SoftAPOff(ctx),
		"station on":   d.StationOn(ctx),
		"station off":  d.StationOff(ctx),
		"softap confg": d.SoftAPConfig(ctx, "", "", ""),
	}
	for name, err := range checks {
		if errors.GetKind(err) != errors.KindUnsupported {
			t.Errorf("%s: expected unsupported kind, got %v", name, err)
		}
	}

	if _, err := d.RSSI(ctx); errors.GetKind(err) != errors.KindUnsupported {
		t.Errorf("rssi: expected unsupported, got %v", err)
	}
	if _, err := d.LinkInfo(ctx); errors.GetKind(err) != errors.KindUnsupported {
		t.Errorf("link info: expected unsupported, got %v", err)
	}
	if _, err := d.Scan(ctx, 0); errors.GetKind(err) != errors.KindUnsupported {
		t.Errorf("scan: expected unsupported, got %v", err)
	}
	if _, _, _, err := d.Select(ctx, nil, nil, nil, nil); errors.GetKind(err) != errors.KindUnsupported {
		t.Errorf("select: expected unsupported, got %v", err)
	}
	if d.IsLinked(ctx) {
		t.Error("unimplemented driver must never report linked")
	}
}
