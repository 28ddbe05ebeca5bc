package predict

import (
	"errors"
	"fmt"
)

// ErrPollTimeout is returned when a prediction does not reach a terminal
// state within the configured wall-clock budget.
var ErrPollTimeout = errors.New("predict: poll timed out")

// ErrInvalidAsset is returned when a downloaded asset is not a decodable
// image. Callers treat it as "no illustration" rather than a hard failure.
var ErrInvalidAsset = errors.New("predict: asset is not a decodable image")

// RequestError reports a rejected create or status request.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("predict: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("predict: request failed with status %d: %s", e.Status, e.Message)
}

// PredictionFailedError reports a prediction that reached a failure terminal
// state on the remote side.
type PredictionFailedError struct {
	ID     string
	Status string
	Reason string
}

func (e *PredictionFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("predict: prediction %s ended %s", e.ID, e.Status)
	}
	return fmt.Sprintf("predict: prediction %s ended %s: %s", e.ID, e.Status, e.Reason)
}

// DownloadError reports a failed asset fetch.
type DownloadError struct {
	URL    string
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("predict: download %s failed with status %d", e.URL, e.Status)
}
