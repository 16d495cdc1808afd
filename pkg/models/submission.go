package models

// CardSubmission is a single crowdsourced card sent for resolution
type CardSubmission struct {
	SubmissionID string          `json:"submission_id" validate:"required"`
	SubmittedBy  string          `json:"submitted_by,omitempty"`
	Card         ProvisionalCard `json:"card"`
}
