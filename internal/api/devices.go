package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-gree/internal/bridges/gree"
	"github.com/nerrad567/gray-logic-gree/internal/device"
)

// commandSource marks commands issued through the REST API.
const commandSource = "api"

// DeviceCommand is the request body for POST /devices/{id}/commands.
type DeviceCommand struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// handleListDevices returns the live state of every configured unit.
// Without a bridge, the last state stored in the registry is returned.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if s.bridge != nil {
		devices := s.bridge.Devices()
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices), "live": true})
		return
	}

	devices, err := s.registry.ListDevices(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices), "live": false})
}

// handleGetDevice returns the live snapshot of one unit.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if s.bridge != nil {
		view, err := s.bridge.Device(id)
		if err != nil {
			if errors.Is(err, gree.ErrDeviceNotFound) {
				writeNotFound(w, "device not found")
				return
			}
			writeInternalError(w, "failed to get device")
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleDeviceCommand executes a climate command and returns the bridge's
// acknowledgement.
//
//	202 accepted: packet queued for the gateway
//	200 ignored:  valid command suppressed because the unit is off
func (s *Server) handleDeviceCommand(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		writeUnavailable(w, "climate bridge not running")
		return
	}
	id := chi.URLParam(r, "id")

	var req DeviceCommand
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command field is required")
		return
	}

	cmd := gree.CommandMessage{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		DeviceID:   id,
		Command:    req.Command,
		Parameters: req.Parameters,
		Source:     commandSource,
	}
	if claims := claimsFromContext(r.Context()); claims != nil {
		cmd.UserID = claims.Subject
	}

	ack := s.bridge.Execute(cmd)
	writeJSON(w, ackHTTPStatus(ack), ack)
}

// handleDeviceSync requests an immediate status poll of one unit.
func (s *Server) handleDeviceSync(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		writeUnavailable(w, "climate bridge not running")
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.bridge.RequestStatus(id); err != nil {
		switch {
		case errors.Is(err, gree.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, gree.ErrStopped), errors.Is(err, gree.ErrOutboxFull):
			writeUnavailable(w, "bridge cannot send")
		default:
			writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "status request failed")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"device_id": id,
		"status":    "requested",
	})
}

// ackHTTPStatus maps a bridge acknowledgement onto an HTTP status.
func ackHTTPStatus(ack gree.AckMessage) int {
	switch ack.Status {
	case gree.AckAccepted:
		return http.StatusAccepted
	case gree.AckIgnored:
		return http.StatusOK
	}

	if ack.Error == nil {
		return http.StatusInternalServerError
	}
	switch ack.Error.Code {
	case gree.ErrCodeNotConfigured:
		return http.StatusNotFound
	case gree.ErrCodeInvalidCommand, gree.ErrCodeInvalidParameters:
		return http.StatusBadRequest
	case gree.ErrCodeDeviceUnreachable:
		return http.StatusBadGateway
	case gree.ErrCodeBridgeError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
