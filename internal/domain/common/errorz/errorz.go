package errorz

import "errors"

var (
	InvalidCallbackData = errors.New("invalid callback data")
	InvalidState        = errors.New("invalid state")
	Forbidden           = errors.New("forbidden")

	NotFound = errors.New("object not found")

	EmptyTitle       = errors.New("event title is empty")
	EmptyDescription = errors.New("event description is empty")
	StartTooSoon     = errors.New("event start time is too soon")

	AlreadyJoined       = errors.New("user is already a participant")
	EventAlreadyStarted = errors.New("event has already started")
	AlreadyCompleted    = errors.New("event is already completed")
	NotStarted          = errors.New("event has not started yet")

	NoActiveEvent         = errors.New("no active event")
	AlreadySubmittedToday = errors.New("push-ups already submitted today")
)
