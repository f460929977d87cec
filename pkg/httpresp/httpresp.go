// Package httpresp builds the wire envelope the caller library expects:
// {ok:true, appId, results} on success, {ok:false, error:{message, details}}
// on failure. It is separate from respbuilder's {trace_id, data} shape,
// because this shape is pinned by the gateway's own contract.
package httpresp

import (
	"net/http"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
)

type ErrorBody struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Envelope struct {
	OK      bool        `json:"ok"`
	AppID   string      `json:"appId,omitempty"`
	Results interface{} `json:"results,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func Success(appID string, results interface{}) Envelope {
	return Envelope{OK: true, AppID: appID, Results: results}
}

func Failure(err *apierr.Error) Envelope {
	if err == nil {
		err = apierr.Internal("internal error")
	}

	return Envelope{
		OK: false,
		Error: &ErrorBody{
			Message: err.Message,
			Details: err.Details,
		},
	}
}

// Write sets the given status and encodes the envelope as JSON.
func Write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	_ = enc.Encode(body)
}

// WriteError maps an apierr.Error straight to its status and envelope.
func WriteError(w http.ResponseWriter, err *apierr.Error) {
	apiErr := apierr.As(err)
	Write(w, apiErr.Status, Failure(apiErr))
}
