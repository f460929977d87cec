// Package notifyvalidate normalizes and bounds-checks the /v1/notify
// submit payload, mirroring the marshal/unmarshal-to-native-type idiom
// used elsewhere in this codebase for inbound message validation.
package notifyvalidate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
)

const (
	MaxTokens      = 500
	MaxTokenLen    = 4096
	MaxTitleLen    = 256
	MaxBodyLen     = 2048
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

type Notification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

type APNSOverride struct {
	Topic            string `json:"topic,omitempty"`
	PushType         string `json:"pushType,omitempty"`
	Sound            string `json:"sound,omitempty"`
	Badge            *int   `json:"badge,omitempty"`
	Category         string `json:"category,omitempty"`
	ThreadID         string `json:"threadId,omitempty"`
	MutableContent   bool   `json:"mutableContent,omitempty"`
	ContentAvailable bool   `json:"contentAvailable,omitempty"`
}

type FCMOverride struct {
	TTLSeconds  *int   `json:"ttlSeconds,omitempty"`
	Priority    string `json:"priority,omitempty"`
	CollapseKey string `json:"collapseKey,omitempty"`
}

// rawRequest is what arrives over the wire; data values may be any JSON
// scalar and are coerced to strings during normalization.
type rawRequest struct {
	AppID        string                 `json:"appId"`
	Platform     Platform               `json:"platform"`
	Broadcast    bool                   `json:"broadcast"`
	Tokens       []string               `json:"tokens"`
	Notification *Notification          `json:"notification"`
	Data         map[string]interface{} `json:"data"`
	TTLSeconds   *int                   `json:"ttlSeconds"`
	APNS         *APNSOverride          `json:"apns"`
	FCM          *FCMOverride           `json:"fcm"`
}

// Request is the normalized, validated shape handed to the dispatch
// handler and provider pools.
type Request struct {
	AppID        string
	Platform     Platform
	Tokens       []string
	Notification *Notification
	Data         map[string]string
	TTLSeconds   *int
	APNS         *APNSOverride
	FCM          *FCMOverride
}

// Parse validates raw against §4.E's rules and returns the normalized
// request, or a typed *apierr.Error describing the first violation.
func Parse(raw []byte) (Request, *apierr.Error) {
	var req rawRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, apierr.BadRequest("invalid JSON body")
	}

	if strings.TrimSpace(req.AppID) == "" {
		return Request{}, apierr.BadRequest("appId is required")
	}

	if req.Broadcast {
		return Request{}, apierr.BadRequest("broadcast is not supported")
	}

	if req.Platform != PlatformIOS && req.Platform != PlatformAndroid {
		return Request{}, apierr.BadRequest("platform must be ios or android")
	}

	if len(req.Tokens) == 0 {
		return Request{}, apierr.BadRequest("tokens is required")
	}

	tokens := dedupTokens(req.Tokens)
	if len(tokens) == 0 {
		return Request{}, apierr.BadRequest("tokens cannot be empty")
	}
	if len(tokens) > MaxTokens {
		return Request{}, apierr.BadRequest(fmt.Sprintf("tokens cannot exceed %d", MaxTokens))
	}

	for _, t := range tokens {
		if len(t) > MaxTokenLen {
			return Request{}, apierr.BadRequest(fmt.Sprintf("token length cannot exceed %d", MaxTokenLen))
		}
	}

	var notification *Notification
	if req.Notification != nil {
		title := strings.TrimSpace(req.Notification.Title)
		body := strings.TrimSpace(req.Notification.Body)

		if utf8.RuneCountInString(title) > MaxTitleLen {
			return Request{}, apierr.BadRequest(fmt.Sprintf("notification title cannot exceed %d characters", MaxTitleLen))
		}
		if utf8.RuneCountInString(body) > MaxBodyLen {
			return Request{}, apierr.BadRequest(fmt.Sprintf("notification body cannot exceed %d characters", MaxBodyLen))
		}

		if title != "" || body != "" {
			notification = &Notification{Title: title, Body: body}
		}
	}

	data, err := coerceData(req.Data)
	if err != nil {
		return Request{}, apierr.BadRequest(err.Error())
	}

	if notification == nil && len(data) == 0 {
		return Request{}, apierr.BadRequest("either notification or data is required")
	}

	if req.TTLSeconds != nil && *req.TTLSeconds < 0 {
		return Request{}, apierr.BadRequest("ttlSeconds must be >= 0")
	}

	if req.FCM != nil {
		if req.FCM.TTLSeconds != nil && *req.FCM.TTLSeconds < 0 {
			return Request{}, apierr.BadRequest("fcm.ttlSeconds must be >= 0")
		}

		if req.FCM.Priority != "" && req.FCM.Priority != "high" && req.FCM.Priority != "normal" {
			return Request{}, apierr.BadRequest(`fcm.priority must be "high" or "normal"`)
		}
	}

	return Request{
		AppID:        req.AppID,
		Platform:     req.Platform,
		Tokens:       tokens,
		Notification: notification,
		Data:         data,
		TTLSeconds:   req.TTLSeconds,
		APNS:         req.APNS,
		FCM:          req.FCM,
	}, nil
}

func dedupTokens(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))

	for _, t := range in {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

// coerceData rejects nested objects/arrays and null values, coercing
// remaining scalars to strings.
func coerceData(in map[string]interface{}) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			return nil, fmt.Errorf("data.%s cannot be null", k)
		case map[string]interface{}:
			return nil, fmt.Errorf("data.%s cannot be a nested object", k)
		case []interface{}:
			return nil, fmt.Errorf("data.%s cannot be an array", k)
		case string:
			out[k] = val
		case bool:
			out[k] = fmt.Sprintf("%t", val)
		case float64:
			out[k] = formatNumber(val)
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}

	return out, nil
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
