package domain

// RecipientResult records the delivery outcome for a single recipient of a
// broadcast. Failures are captured independently and never short-circuit the
// remaining recipients.
type RecipientResult struct {
	Recipient string
	Success   bool
	Error     string
}

// SendResult aggregates the outcome of a channel send. Success means at least
// one recipient accepted the message.
type SendResult struct {
	Success         bool
	SentTo          int
	TotalRecipients int
	Results         []RecipientResult
	Error           string
}

// FailedSend builds a SendResult describing a send that never reached the
// transport (disabled channel, missing recipients, bad input).
func FailedSend(reason string) SendResult {
	return SendResult{Success: false, Error: reason}
}

// ConnResult is the outcome of a channel connectivity probe.
type ConnResult struct {
	Success  bool
	Metadata map[string]string
	Error    string
}

// Deploy status values carried by DeployNotification.
const (
	DeployStatusSuccess = "success"
	DeployStatusFailed  = "failed"
	DeployStatusStarted = "started"
)

// DeployNotification is the structured payload for deploy alerts. Channels
// format it into channel-specific text before sending.
type DeployNotification struct {
	Status   string
	Project  string
	Branch   string
	Commit   string
	Author   string
	Duration string
}
