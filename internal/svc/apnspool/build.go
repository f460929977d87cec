package apnspool

import (
	"time"

	"github.com/yusufsyaifudin/ngendika/internal/logic/notifyvalidate"
	"github.com/yusufsyaifudin/ngendika/pkg/apns"
)

const maxExpirySeconds = 3600

// BuildNotification derives the per-token APNs payload from the
// normalized submit request, per §4.C's build-notification rules.
func BuildNotification(req notifyvalidate.Request, bundleID string) apns.Notification {
	n := apns.Notification{
		Topic: bundleID,
		Data:  req.Data,
	}

	if req.APNS != nil && req.APNS.Topic != "" {
		n.Topic = req.APNS.Topic
	}

	hasAlert := req.Notification != nil && (req.Notification.Title != "" || req.Notification.Body != "")
	if hasAlert {
		n.Alert = map[string]string{}
		if req.Notification.Title != "" {
			n.Alert["title"] = req.Notification.Title
		}
		if req.Notification.Body != "" {
			n.Alert["body"] = req.Notification.Body
		}
	}

	contentAvailable := req.APNS != nil && req.APNS.ContentAvailable

	pushType := "alert"
	if req.APNS != nil && req.APNS.PushType != "" {
		pushType = req.APNS.PushType
	} else if contentAvailable && !hasAlert {
		pushType = "background"
	}
	n.PushType = pushType

	switch {
	case req.APNS != nil && req.APNS.Sound != "":
		n.Sound = req.APNS.Sound
	case hasAlert:
		n.Sound = "default"
	}

	if req.APNS != nil {
		n.Badge = req.APNS.Badge
		n.Category = req.APNS.Category
		n.ThreadID = req.APNS.ThreadID
		n.MutableContent = req.APNS.MutableContent
		n.ContentAvailable = req.APNS.ContentAvailable
	}

	ttl := maxExpirySeconds
	if req.TTLSeconds != nil {
		ttl = minInt(*req.TTLSeconds, maxExpirySeconds)
	}
	n.Expiration = time.Now().Add(time.Duration(ttl) * time.Second)

	if pushType == "background" {
		n.Priority = 5
	} else {
		n.Priority = 10
	}

	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
