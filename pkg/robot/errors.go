package robot

import "errors"

// Sentinel errors for robot stack operations.
var (
	// ErrLocalizationTimeout is returned when the localization stack does
	// not answer within its deadline. Callers should treat the frame as
	// having no world positions rather than aborting.
	ErrLocalizationTimeout = errors.New("robot: localization timed out")

	// ErrUnknownGroup is returned for a kinematic group the daemon does
	// not expose.
	ErrUnknownGroup = errors.New("robot: unknown kinematic group")

	// ErrCameraClosed is returned when capturing from a closed camera.
	ErrCameraClosed = errors.New("robot: camera closed")

	// ErrEmptyFrame is returned when the camera yields no image data.
	ErrEmptyFrame = errors.New("robot: empty camera frame")
)
