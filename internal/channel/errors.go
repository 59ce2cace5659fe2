// Package channel turns inbound WhatsApp and telephony webhooks into candidate
// ingests and drives the delivery idempotency protocol around them.
package channel

// TransientError indicates a failure worth retrying, such as a provider timeout.
type TransientError struct {
	Message string
}

func (e *TransientError) Error() string {
	return e.Message
}

// PermanentError indicates a payload that will never succeed as sent.
type PermanentError struct {
	Message string
}

func (e *PermanentError) Error() string {
	return e.Message
}

// SignatureError indicates a missing or mismatched webhook signature.
type SignatureError struct {
	Message string
}

func (e *SignatureError) Error() string {
	return e.Message
}
