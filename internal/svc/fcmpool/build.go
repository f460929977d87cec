package fcmpool

import (
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/yusufsyaifudin/ngendika/internal/logic/notifyvalidate"
	"github.com/yusufsyaifudin/ngendika/pkg/fcm"
)

// buildMessage derives the FCM multicast message from the normalized
// submit request, per §4.D's build-message rules.
func buildMessage(req notifyvalidate.Request) *fcm.MulticastMessage {
	msg := &fcm.MulticastMessage{}

	if req.Notification != nil {
		msg.Notification = &messaging.Notification{
			Title: req.Notification.Title,
			Body:  req.Notification.Body,
		}
	}

	if len(req.Data) > 0 {
		msg.Data = req.Data
	}

	msg.Android = buildAndroidConfig(req)

	return msg
}

func buildAndroidConfig(req notifyvalidate.Request) *messaging.AndroidConfig {
	cfg := &messaging.AndroidConfig{}
	empty := true

	ttlSeconds := req.TTLSeconds
	if req.FCM != nil && req.FCM.TTLSeconds != nil {
		ttlSeconds = req.FCM.TTLSeconds
	}
	if ttlSeconds != nil {
		ttl := time.Duration(*ttlSeconds) * time.Second
		cfg.TTL = &ttl
		empty = false
	}

	if req.FCM != nil && req.FCM.Priority != "" {
		cfg.Priority = req.FCM.Priority
		empty = false
	}

	if req.FCM != nil && req.FCM.CollapseKey != "" {
		cfg.CollapseKey = req.FCM.CollapseKey
		empty = false
	}

	if empty {
		return nil
	}

	return cfg
}
