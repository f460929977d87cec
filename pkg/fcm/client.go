package fcm

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// Client sends multicast messages to batches of device tokens on behalf
// of the single tenant it was constructed for.
type Client interface {
	SendMulticast(ctx context.Context, message *MulticastMessage) (MulticastBatchResult, error)

	// Close releases the client's underlying HTTP connections. Called
	// once when the client is evicted or the process shuts down.
	Close() error
}

// ServiceAccountKey represents the fields of a Firebase service-account
// JSON document the gateway needs to authenticate with FCM.
type ServiceAccountKey struct {
	Type         string `json:"type" validate:"required"`
	ProjectID    string `json:"project_id" validate:"required"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key" validate:"required"`
	ClientEmail  string `json:"client_email" validate:"required"`
	ClientID     string `json:"client_id"`
	AuthURI      string `json:"auth_uri"`
	TokenURI     string `json:"token_uri"`
}

// MulticastMessage is like https://firebase.google.com/docs/reference/fcm/rest/v1/projects.messages
// but takes an array of tokens instead of a single one.
type MulticastMessage struct {
	Tokens       []string                 `json:"tokens,omitempty"`
	Data         map[string]string        `json:"data,omitempty"`
	Notification *messaging.Notification  `json:"notification,omitempty"`
	Android      *messaging.AndroidConfig `json:"android,omitempty"`
}

// MulticastSendResponse represents the status of an individual message sent
// as part of a batch request.
type MulticastSendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Invalid   bool   `json:"invalid,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MulticastBatchResult is the aggregate report of one SendMulticast call.
type MulticastBatchResult struct {
	SuccessCount int                      `json:"success_count"`
	FailureCount int                      `json:"failure_count"`
	Responses    []MulticastSendResponse  `json:"responses,omitempty"`
}

// HandleFCMBatchResponse converts the Firebase SDK's BatchResponse into our
// own type, classifying invalid tokens per spec.md 4.D.
func HandleFCMBatchResponse(result *messaging.BatchResponse) MulticastBatchResult {
	if result == nil {
		return MulticastBatchResult{}
	}

	responses := make([]MulticastSendResponse, 0, len(result.Responses))
	for _, r := range result.Responses {
		if r == nil {
			continue
		}

		resp := MulticastSendResponse{
			Success:   r.Success,
			MessageID: r.MessageID,
		}

		if r.Error != nil {
			resp.Error = r.Error.Error()
			resp.Invalid = messaging.IsRegistrationTokenNotRegistered(r.Error) ||
				messaging.IsInvalidArgument(r.Error)
		}

		responses = append(responses, resp)
	}

	return MulticastBatchResult{
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		Responses:    responses,
	}
}
