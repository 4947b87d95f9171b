package service

import (
	"context"
	"weaponcam/internal/apperr"

	"gocv.io/x/gocv"
)

// ProbeKind selects the wording of a probe result.
type ProbeKind string

const (
	ProbeCamera      ProbeKind = "camera"
	ProbePermissions ProbeKind = "permissions"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ProbeResult is the JSON payload of a camera check.
type ProbeResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type probeMessages struct {
	ok, inUse, openFailed, readFailed string
}

var messages = map[ProbeKind]probeMessages{
	ProbeCamera: {
		ok:         "Camera is working",
		inUse:      "Camera is working (in use by the live stream)",
		openFailed: "Could not open camera",
		readFailed: "Could not read from camera",
	},
	ProbePermissions: {
		ok:         "Camera access granted",
		inUse:      "Camera access granted (in use by the live stream)",
		openFailed: "Could not access camera. Please check permissions.",
		readFailed: "Could not read from camera. Please check permissions.",
	},
}

// Probe checks that the primary camera opens and delivers one frame. It never
// waits for the device: a camera leased to a live session is reported as
// working without being touched. Otherwise the device is leased for the
// duration of the check and always released. Failures are reported in the
// result, never as an error.
func (m *Manager) Probe(ctx context.Context, kind ProbeKind) ProbeResult {
	msgs, ok := messages[kind]
	if !ok {
		msgs = messages[ProbeCamera]
	}

	lease, ok := m.devices.TryAcquire(CameraKey)
	if !ok {
		m.logger.Debug("Camera probe: %s is leased to a live session", CameraKey)
		return ProbeResult{Status: StatusSuccess, Message: msgs.inUse}
	}
	defer lease.Release()

	if err := ctx.Err(); err != nil {
		return ProbeResult{Status: StatusError, Message: err.Error()}
	}

	index := 0
	if len(m.config.CameraIndices) > 0 {
		index = m.config.CameraIndices[0]
	}

	device, err := m.opener.Open(index, gocv.VideoCaptureAny)
	if err != nil || device == nil || !device.IsOpened() {
		if device != nil {
			device.Close()
		}
		m.logger.Warning("Camera probe: index %d did not open: %v", index, err)
		return ProbeResult{Status: StatusError, Message: msgs.openFailed}
	}
	defer device.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	if !device.Read(&frame) || frame.Empty() {
		m.metrics.ReadErrors.Add(1)
		m.logger.Warning("Camera probe: %v on index %d", apperr.ErrRead, index)
		return ProbeResult{Status: StatusError, Message: msgs.readFailed}
	}

	return ProbeResult{Status: StatusSuccess, Message: msgs.ok}
}
