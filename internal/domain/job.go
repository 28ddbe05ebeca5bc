package domain

import "time"

// JobStatus enumerates poster job lifecycle states. Transitions are
// one-directional: pending -> processing -> completed|failed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Progress tags record the last completed pipeline stage. Tags only ever
// advance, so a poller sampling Progress over time observes a monotone
// sequence with respect to the stage order.
const (
	ProgressQueued              = "queued"
	ProgressStarting            = "starting"
	ProgressCallingLLM          = "calling-llm"
	ProgressLLMDone             = "llm-done"
	ProgressTextReady           = "text-ready"
	ProgressIllustrationSkipped = "illustration-skipped"
	ProgressIllustrationFailed  = "illustration-failed"
	ProgressIllustrationInvalid = "illustration-invalid"
	ProgressCompose             = "compose"
	ProgressDone                = "done"
	ProgressError               = "error"
)

var progressRank = map[string]int{
	ProgressQueued:              0,
	ProgressStarting:            1,
	ProgressCallingLLM:          2,
	ProgressLLMDone:             3,
	ProgressTextReady:           4,
	ProgressIllustrationSkipped: 5,
	ProgressIllustrationFailed:  5,
	ProgressIllustrationInvalid: 5,
	ProgressCompose:             6,
	ProgressDone:                7,
	ProgressError:               7,
}

// ProgressRank maps a progress tag onto the fixed stage order. Unknown tags
// rank lowest so a bogus tag can never mask a regression.
func ProgressRank(tag string) int {
	if r, ok := progressRank[tag]; ok {
		return r
	}
	return -1
}

// WordText is the triple produced by the text stage.
type WordText struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
	Example string `json:"example"`
}

// Complete reports whether all three fields are populated.
func (t WordText) Complete() bool {
	return t.Word != "" && t.Meaning != "" && t.Example != ""
}

// JobResult is the partial/final payload of a poster job. Field presence
// encodes the stage the job has reached: Text is set as soon as the text
// stage finishes and is never cleared; Image is only set on completion.
type JobResult struct {
	Text                *WordText `json:"text,omitempty"`
	Image               string    `json:"image,omitempty"`
	Overlay             string    `json:"overlay,omitempty"`
	Theme               string    `json:"theme,omitempty"`
	Level               string    `json:"level,omitempty"`
	IllustrationPresent bool      `json:"illustration_present"`
	IllustrationError   string    `json:"illustration_error,omitempty"`
}

// Job tracks one poster request from creation to terminal state.
type Job struct {
	ID        string     `json:"id"`
	Theme     string     `json:"theme"`
	Level     string     `json:"level"`
	Status    JobStatus  `json:"status"`
	Progress  string     `json:"progress"`
	Result    *JobResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so registry readers never alias the record the
// owning goroutine is still mutating.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Result != nil {
		result := *j.Result
		if j.Result.Text != nil {
			text := *j.Result.Text
			result.Text = &text
		}
		out.Result = &result
	}
	return &out
}
