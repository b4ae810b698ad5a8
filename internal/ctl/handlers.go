// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ctl

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"grimm.is/wavelink/internal/config"
	"grimm.is/wavelink/internal/errors"
	"grimm.is/wavelink/internal/wifi"
)

type linkRequest struct {
	SSID       string `json:"ssid"`
	Security   string `json:"security,omitempty"`
	Credential string `json:"credential,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`
	DelayMs    int    `json:"delay_ms,omitempty"`
}

// handleLink joins a network. With attempts above one the manager runs
// its bounded retry loop; otherwise a single attempt is made.
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := s.decode(w, r, &req); err != nil {
		return
	}

	security, err := config.ParseSecurity(req.Security)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Security == "" {
		security = wifi.DefaultRetryPolicy().Security
	}

	if req.Attempts > 1 || req.DelayMs > 0 {
		policy := wifi.DefaultRetryPolicy()
		policy.Security = security
		if req.Attempts > 0 {
			policy.MaxAttempts = req.Attempts
		}
		if req.DelayMs > 0 {
			policy.Delay = time.Duration(req.DelayMs) * time.Millisecond
		}
		err = s.mgr.TryLink(r.Context(), req.SSID, req.Credential, policy)
	} else {
		err = s.mgr.Link(r.Context(), req.SSID, security, req.Credential)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Unlink(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

type linkInfoRequest struct {
	IP      string `json:"ip,omitempty"`
	Netmask string `json:"netmask,omitempty"`
	Gateway string `json:"gateway,omitempty"`
	DNS     string `json:"dns,omitempty"`
}

func (s *Server) handleSetLinkInfo(w http.ResponseWriter, r *http.Request) {
	var req linkInfoRequest
	if err := s.decode(w, r, &req); err != nil {
		return
	}
	if err := s.mgr.SetLinkInfo(r.Context(), req.IP, req.Netmask, req.Gateway, req.DNS); err != nil {
		s.writeError(w, err)
		return
	}
	info, err := s.mgr.LinkInfo()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleRSSI(w http.ResponseWriter, r *http.Request) {
	rssi, err := s.mgr.RSSI(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"rssi": rssi})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	duration := time.Duration(0)
	if raw := r.URL.Query().Get("duration_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			s.writeError(w, errors.Errorf(errors.KindValidation, "invalid duration_ms %q", raw))
			return
		}
		duration = time.Duration(ms) * time.Millisecond
	}

	networks, err := s.mgr.Scan(r.Context(), duration)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"networks": networks,
		"count":    len(networks),
	})
}

type softAPRequest struct {
	SSID       string `json:"ssid"`
	Security   string `json:"security,omitempty"`
	Credential string `json:"credential,omitempty"`
	MaxConn    int    `json:"max_conn,omitempty"`
}

func (s *Server) handleSoftAPInit(w http.ResponseWriter, r *http.Request) {
	var req softAPRequest
	if err := s.decode(w, r, &req); err != nil {
		return
	}
	security, err := config.ParseSecurity(req.Security)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.mgr.SoftAPInit(r.Context(), req.SSID, security, req.Credential, req.MaxConn); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

type softAPConfigRequest struct {
	IP      string `json:"ip,omitempty"`
	Gateway string `json:"gateway,omitempty"`
	Netmask string `json:"netmask,omitempty"`
}

func (s *Server) handleSoftAPConfig(w http.ResponseWriter, r *http.Request) {
	var req softAPConfigRequest
	if err := s.decode(w, r, &req); err != nil {
		return
	}
	if err := s.mgr.SoftAPConfig(r.Context(), req.IP, req.Gateway, req.Netmask); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleSoftAPClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.mgr.SoftAPClients(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"count":   len(clients),
	})
}

func (s *Server) handleSoftAPOff(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.SoftAPOff(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleStationOn(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.StationOn(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleStationOff(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.StationOff(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.mgr.Status().StateName,
	})
}

// decode reads a bounded JSON body into v, writing the validation error
// itself when the body is malformed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		wrapped := errors.Wrap(err, errors.KindValidation, "invalid request body")
		s.writeError(w, wrapped)
		return wrapped
	}
	return nil
}
