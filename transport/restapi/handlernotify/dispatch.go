package handlernotify

import (
	"context"

	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
	"github.com/yusufsyaifudin/ngendika/internal/logic/notifyvalidate"
	"github.com/yusufsyaifudin/ngendika/internal/svc/apnspool"
	"github.com/yusufsyaifudin/ngendika/internal/svc/credstore"
	"github.com/yusufsyaifudin/ngendika/pkg/apns"
)

func (h *Handler) sendIOS(ctx context.Context, cfg credstore.AppConfig, req notifyvalidate.Request) (platformResult, *apierr.Error) {
	if cfg.IOS == nil {
		return platformResult{}, apierr.BadRequest("ios platform not configured for this app")
	}

	bundleID := cfg.App.ClientID
	build := func() apns.Notification {
		return apnspool.BuildNotification(req, bundleID)
	}

	sendResult, err := h.cfg.APNSPool.Send(ctx, cfg.App.ClientID, *cfg.IOS, req.Tokens, build)
	if err != nil {
		return platformResult{}, apierr.Internal("apns dispatch failed")
	}

	return platformResult{
		Requested:     sendResult.Requested,
		Sent:          sendResult.Sent,
		Failed:        sendResult.Failed,
		InvalidTokens: sendResult.InvalidTokens,
	}, nil
}

func (h *Handler) sendAndroid(ctx context.Context, cfg credstore.AppConfig, req notifyvalidate.Request) (platformResult, *apierr.Error) {
	if cfg.Android == nil {
		return platformResult{}, apierr.BadRequest("android platform not configured for this app")
	}

	sendResult, err := h.cfg.FCMPool.Send(ctx, cfg.App.ClientID, cfg.Android.ServiceAccountJSON, req.Tokens, req)
	if err != nil {
		return platformResult{}, apierr.Internal("fcm dispatch failed")
	}

	return platformResult{
		Requested:     sendResult.Requested,
		Sent:          sendResult.Sent,
		Failed:        sendResult.Failed,
		InvalidTokens: sendResult.InvalidTokens,
	}, nil
}
