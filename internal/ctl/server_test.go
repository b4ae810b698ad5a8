// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ctl

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/wavelink/internal/driver"
	"grimm.is/wavelink/internal/driver/sim"
	"grimm.is/wavelink/internal/errors"
	"grimm.is/wavelink/internal/metrics"
	"grimm.is/wavelink/internal/wifi"
)

func newTestServer(t *testing.T) (*Server, *sim.Driver) {
	t.Helper()
	drv := sim.New()
	met := metrics.New()
	mgr := wifi.New(drv, wifi.Options{Metrics: met})
	srv := NewServer(Options{Manager: mgr, Metrics: met})
	return srv, drv
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLinkEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/link", map[string]interface{}{
		"ssid":       "backhaul",
		"security":   "wpa2",
		"credential": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status wifi.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "linked", status.StateName)
	require.NotNil(t, status.Info)
	assert.NotEmpty(t, status.Info.IP)
}

func TestLinkEndpointValidation(t *testing.T) {
	srv, drv := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/link", map[string]interface{}{
		"ssid":     "secured",
		"security": "wpa2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, drv.LinkCalls())

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "validation", envelope["kind"])
}

func TestLinkEndpointRetry(t *testing.T) {
	srv, drv := newTestServer(t)
	drv.FailLink(errors.New(errors.KindDriver, "association timeout"), 1)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/link", map[string]interface{}{
		"ssid":       "backhaul",
		"credential": "hunter22",
		"attempts":   3,
		"delay_ms":   1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, drv.LinkCalls())
}

func TestLinkEndpointDriverFailure(t *testing.T) {
	srv, drv := newTestServer(t)
	drv.FailLink(errors.New(errors.KindDriver, "radio fault"), 1)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/link", map[string]interface{}{
		"ssid":       "backhaul",
		"credential": "hunter22",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLinkEndpointMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/link", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnlinkEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/link", map[string]interface{}{
		"ssid": "open-net", "security": "open",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), "POST", "/api/v1/unlink", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status wifi.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "idle", status.StateName)
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "GET", "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status wifi.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "idle", status.StateName)
	assert.Equal(t, "station_on", status.ModeName)
}

func TestRSSIEndpointConflictsOutsideLinked(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "GET", "/api/v1/rssi", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestScanEndpoint(t *testing.T) {
	srv, drv := newTestServer(t)
	drv.SetNetworks([]driver.Network{
		{SSID: "backhaul", Security: driver.SecurityWPA2, RSSI: -48},
		{SSID: "guest", Security: driver.SecurityOpen, RSSI: -71},
	})

	rec := doJSON(t, srv.Handler(), "GET", "/api/v1/scan?duration_ms=100", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count    int              `json:"count"`
		Networks []driver.Network `json:"networks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 100*time.Millisecond, drv.LastScanDuration())

	rec = doJSON(t, srv.Handler(), "GET", "/api/v1/scan?duration_ms=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetLinkInfoEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/link", map[string]interface{}{
		"ssid": "open-net", "security": "open",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), "POST", "/api/v1/link/info", map[string]interface{}{
		"ip": "10.0.0.9",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var info driver.LinkInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "10.0.0.9", info.IP)
}

func TestSoftAPEndpoints(t *testing.T) {
	srv, drv := newTestServer(t)
	drv.SetClients([]driver.APClient{{IP: "192.168.0.17", MAC: [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}}})

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/softap", map[string]interface{}{
		"ssid": "setup-portal",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status wifi.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "access_point", status.ModeName)

	rec = doJSON(t, srv.Handler(), "GET", "/api/v1/softap/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var clients struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clients))
	assert.Equal(t, 1, clients.Count)

	rec = doJSON(t, srv.Handler(), "POST", "/api/v1/softap/config", map[string]interface{}{
		"ip": "10.1.0.1", "gateway": "10.1.0.1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), "DELETE", "/api/v1/softap", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "station_off", status.ModeName)
}

func TestSoftAPConfigOutsideAPMode(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/softap/config", map[string]interface{}{
		"ip": "10.1.0.1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnsupportedCapabilityMapsTo501(t *testing.T) {
	drv := sim.New()
	drv.Disable("softap")
	mgr := wifi.New(drv, wifi.Options{})
	srv := NewServer(Options{Manager: mgr})

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/softap", map[string]interface{}{
		"ssid": "setup-portal",
	})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestStationEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/station/off", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status wifi.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "station_off", status.ModeName)

	rec = doJSON(t, srv.Handler(), "POST", "/api/v1/station/on", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "station_on", status.ModeName)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "GET", "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "GET", "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wavelink_link_state")
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), "GET", "/api/v1/status", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestEventsWebsocket(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Initial status snapshot.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var status wifi.Status
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, "idle", status.StateName)

	// A link produces linking and linked events.
	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/link", map[string]interface{}{
		"ssid": "open-net", "security": "open",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var ev wifi.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "linking", ev.State)
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "linked", ev.State)
}
