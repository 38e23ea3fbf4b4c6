package mailer

// EmailJob is the JSON payload put on the queue for best-effort sends.
// Invite mail goes through here; the worker delivers it via Mailgun.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}
