package fcm_test

import (
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"

	"github.com/yusufsyaifudin/ngendika/pkg/fcm"
)

func TestClientDefault_Close(t *testing.T) {
	c := &fcm.ClientDefault{}
	assert.NoError(t, c.Close())
}

func TestHandleFCMBatchResponse(t *testing.T) {
	t.Run("nil result", func(t *testing.T) {
		got := fcm.HandleFCMBatchResponse(nil)
		assert.Equal(t, fcm.MulticastBatchResult{}, got)
	})

	t.Run("mixed responses", func(t *testing.T) {
		result := &messaging.BatchResponse{
			SuccessCount: 1,
			FailureCount: 1,
			Responses: []*messaging.SendResponse{
				{Success: true, MessageID: "msg-1"},
				{Success: false, Error: errors.New("registration-token-not-registered")},
				nil,
			},
		}

		got := fcm.HandleFCMBatchResponse(result)
		assert.Equal(t, 1, got.SuccessCount)
		assert.Equal(t, 1, got.FailureCount)
		assert.Len(t, got.Responses, 2)
		assert.True(t, got.Responses[0].Success)
		assert.Equal(t, "msg-1", got.Responses[0].MessageID)
		assert.False(t, got.Responses[1].Success)
		assert.NotEmpty(t, got.Responses[1].Error)
	})
}
