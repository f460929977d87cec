package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
	"github.com/yusufsyaifudin/ngendika/pkg/httpresp"
)

// CaptureBody implements §4.F.5: read the body up to maxBytes, verify it
// parses as a JSON object, and stash the exact raw bytes on the request
// context for the HMAC stage — following transport/restapi/logger.go's
// io.ReadAll + io.NopCloser re-wrap pattern.
func CaptureBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}

			limited := io.LimitReader(r.Body, maxBytes+1)
			body, err := io.ReadAll(limited)
			if err != nil {
				httpresp.WriteError(w, apierr.BadRequest("cannot read request body"))
				return
			}
			_ = r.Body.Close()

			if int64(len(body)) > maxBytes {
				httpresp.WriteError(w, apierr.BadRequest("request body too large"))
				return
			}

			var probe interface{}
			if err := json.Unmarshal(body, &probe); err != nil {
				httpresp.WriteError(w, apierr.BadRequest("Invalid JSON"))
				return
			}
			if _, ok := probe.(map[string]interface{}); !ok {
				httpresp.WriteError(w, apierr.BadRequest("Invalid JSON"))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r = withRawBody(r, body)

			next.ServeHTTP(w, r)
		})
	}
}
