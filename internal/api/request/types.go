package request

import "time"

// CredentialsRequest is the request body for creating or verifying an identity
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PutRecordRequest is the request body for writing a whole record
type PutRecordRequest struct {
	Name            string    `json:"name"`
	Nickname        string    `json:"nickname"`
	Email           string    `json:"email"`
	Score           int64     `json:"score"`
	Timestamp       time.Time `json:"timestamp"`
	TermsAccepted   bool      `json:"terms_accepted"`
	NewsletterOptIn bool      `json:"newsletter_opt_in"`
}

// UpdateScoreRequest is the request body for changing a record's score
type UpdateScoreRequest struct {
	Score *int64 `json:"score"`
}
