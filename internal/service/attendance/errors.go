package attendance

import "errors"

var (
	ErrAttendeeNotFound = errors.New("attendee not found")
	ErrInvalidAttendee  = errors.New("invalid attendee")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")

	// errSkip aborts a repository update without it being a failure.
	errSkip = errors.New("skip")
)
