// Package handlernotify implements POST /v1/notify: validate, resolve
// tenant credentials, invoke the right provider pool, and shape the
// response per §4.G — following transport/restapi's existing handler
// shape (decode, respond via a dedicated envelope package, wrap in a
// trace span).
package handlernotify

import (
	"io"
	"net/http"
	"time"

	"github.com/sony/sonyflake"
	"github.com/yusufsyaifudin/ylog"

	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
	"github.com/yusufsyaifudin/ngendika/internal/logic/notifyvalidate"
	"github.com/yusufsyaifudin/ngendika/internal/svc/apnspool"
	"github.com/yusufsyaifudin/ngendika/internal/svc/credstore"
	"github.com/yusufsyaifudin/ngendika/internal/svc/fcmpool"
	"github.com/yusufsyaifudin/ngendika/pkg/httpresp"
	"github.com/yusufsyaifudin/ngendika/pkg/tracer"
	"github.com/yusufsyaifudin/ngendika/transport/restapi/middleware"
)

type Config struct {
	CredStore credstore.Repo
	APNSPool  *apnspool.Pool
	FCMPool   *fcmpool.Pool
}

type Handler struct {
	cfg      Config
	dispatch *sonyflake.Sonyflake
}

// dispatchEpoch anchors the sonyflake id generator; it has no meaning
// beyond keeping generated ids k-sortable across restarts.
var dispatchEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func NewHandler(cfg Config) (*Handler, error) {
	dispatch := sonyflake.NewSonyflake(sonyflake.Settings{StartTime: dispatchEpoch})
	return &Handler{cfg: cfg, dispatch: dispatch}, nil
}

type platformResult struct {
	Requested     int      `json:"requested"`
	Sent          int      `json:"sent"`
	Failed        int      `json:"failed"`
	InvalidTokens []string `json:"invalidTokens"`
}

func (h *Handler) Notify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.StartSpan(r.Context(), "handlernotify.Notify")
		defer span.End()

		body := middleware.RawBody(ctx)
		if len(body) == 0 {
			var err error
			body, err = io.ReadAll(r.Body)
			if err != nil {
				httpresp.WriteError(w, apierr.BadRequest("cannot read request body"))
				return
			}
		}

		req, apiErr := notifyvalidate.Parse(body)
		if apiErr != nil {
			httpresp.WriteError(w, apiErr)
			return
		}

		if resolvedAppID, ok := middleware.ResolvedAppID(ctx); ok && resolvedAppID != req.AppID {
			httpresp.WriteError(w, apierr.BadRequest("appId does not match authenticated app"))
			return
		}

		dispatchID, err := h.dispatch.NextID()
		if err != nil {
			httpresp.WriteError(w, apierr.Internal("cannot generate dispatch id"))
			return
		}
		ylog.Debug(ctx, "dispatching notify request", ylog.KV("dispatchId", dispatchID), ylog.KV("appId", req.AppID), ylog.KV("platform", req.Platform))

		appCfg, ok, err := h.cfg.CredStore.GetAppConfig(ctx, req.AppID)
		if err != nil {
			httpresp.WriteError(w, apierr.Internal("credential lookup failed"))
			return
		}
		if !ok {
			httpresp.WriteError(w, apierr.NotFound("app not found"))
			return
		}

		var result platformResult
		switch req.Platform {
		case notifyvalidate.PlatformIOS:
			result, apiErr = h.sendIOS(ctx, appCfg, req)
		case notifyvalidate.PlatformAndroid:
			result, apiErr = h.sendAndroid(ctx, appCfg, req)
		default:
			apiErr = apierr.BadRequest("unsupported platform")
		}

		if apiErr != nil {
			httpresp.WriteError(w, apiErr)
			return
		}

		results := map[string]platformResult{string(req.Platform): result}
		httpresp.Write(w, http.StatusOK, httpresp.Success(req.AppID, results))
	}
}
