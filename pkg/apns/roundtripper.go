package apns

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/multierr"
)

// RoundTripper logs every request/response exchanged with APNs, mirroring
// pkg/fcm's own logging transport.
type RoundTripper struct {
	Base http.RoundTripper
}

var _ http.RoundTripper = (*RoundTripper)(nil)

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	t0 := time.Now()
	ctx := req.Context()

	var reqBody []byte
	var err error
	if req.Body != nil {
		reqBody, err = io.ReadAll(req.Body)
		if err != nil {
			err = multierr.Append(err, fmt.Errorf("error read request body: %w", err))
			reqBody = []byte("")
		}
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	resp, doErr := r.Base.RoundTrip(req)
	if doErr != nil {
		err = multierr.Append(err, fmt.Errorf("error doing actual request: %w", doErr))
	}

	if resp == nil {
		resp = &http.Response{}
	}

	var respBody []byte
	if resp.Body != nil {
		respBody, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}

	errStr := ""
	if err != nil {
		errStr = err.Error()
	}

	toSimpleMap := func(h http.Header) map[string]string {
		out := map[string]string{}
		for k, v := range h {
			out[k] = strings.Join(v, " ")
		}
		return out
	}

	ylog.Access(ctx, ylog.AccessLogData{
		Path: req.URL.String(),
		Request: ylog.HTTPData{
			Header:     toSimpleMap(req.Header),
			DataString: string(reqBody),
		},
		Response: ylog.HTTPData{
			Header:     toSimpleMap(resp.Header),
			DataString: string(respBody),
		},
		Error:       errStr,
		ElapsedTime: time.Since(t0).Milliseconds(),
	})

	return resp, doErr
}
