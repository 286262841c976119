package imdraw

import "errors"

var (
	// ErrNotActive is returned by calls that produce a value while no
	// backend is active.
	ErrNotActive = errors.New("imdraw: no active backend")

	// ErrDeviceUnavailable is returned by Init when the backend accepted
	// the handle but its device is not usable. FrameErr reports it for a
	// frame dropped because the device was lost before End.
	ErrDeviceUnavailable = errors.New("imdraw: device unavailable")

	// ErrNestedBegin is recorded in FrameErr when Begin is called inside a frame.
	ErrNestedBegin = errors.New("imdraw: Begin called inside a frame")
)
