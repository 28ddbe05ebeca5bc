package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateVote = errors.New("duplicate vote")
	ErrInvalidSlug   = errors.New("invalid slug")
	ErrMeetingClosed = errors.New("meeting closed")
)
