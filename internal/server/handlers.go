package server

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/docgate/pkg/common/errors"
	"github.com/vnykmshr/docgate/pkg/document"
	"github.com/vnykmshr/docgate/pkg/submission"
)

// UpstreamRequestIDHeader names the X-Request-Id sent to the registration API.
const UpstreamRequestIDHeader = "X-Upstream-Request-ID"

// errorResponse is the JSON body of every non-2xx answer.
type errorResponse struct {
	Error          string `json:"error"`
	Detail         string `json:"detail,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	resp := errorResponse{Error: msg, RequestID: GetRequestID(r.Context())}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

type limiterHealth struct {
	Capacity  int       `json:"capacity"`
	Remaining int       `json:"remaining"`
	Window    string    `json:"window"`
	ResetAt   time.Time `json:"reset_at"`
	Granted   int64     `json:"granted"`
	Rejected  int64     `json:"rejected"`
}

type healthResponse struct {
	Status  string        `json:"status"`
	Limiter limiterHealth `json:"limiter"`
	Pending int           `json:"pending"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.opts.Client.Limiter().Stats()
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Limiter: limiterHealth{
			Capacity:  stats.Capacity,
			Remaining: stats.Remaining,
			Window:    stats.Window.String(),
			ResetAt:   stats.ResetAt,
			Granted:   stats.Granted,
			Rejected:  stats.Rejected,
		},
		Pending: s.opts.Pending.InUse(),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.opts.Pending.TryAcquire() {
		w.Header().Set("Retry-After", "1")
		writeError(w, r, http.StatusServiceUnavailable, "too many pending submissions", gferrors.ErrCapacityExceeded)
		return
	}
	defer s.opts.Pending.Release()

	credential := r.Header.Get(SignatureHeader)
	if credential == "" {
		writeError(w, r, http.StatusUnauthorized, "missing "+SignatureHeader+" header", nil)
		return
	}

	doc, err := document.Decode(io.LimitReader(r.Body, maxBodyBytes), requestFormat(r))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid document", err)
		return
	}
	s.opts.Defaults.Apply(doc)

	res, err := s.opts.Client.Submit(r.Context(), doc, credential)
	if err != nil {
		s.writeSubmitError(w, r, err)
		return
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set(UpstreamRequestIDHeader, res.RequestID)
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body)
}

func (s *Server) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var terr *submission.TransportError

	switch {
	case errors.Is(err, gferrors.ErrLimitExceeded):
		w.Header().Set("Retry-After", retryAfter(s.opts.Client.Limiter().Reserve().Delay))
		writeError(w, r, http.StatusTooManyRequests, "rate limit wait abandoned", err)

	case errors.As(err, &terr):
		w.Header().Set(UpstreamRequestIDHeader, terr.RequestID)
		resp := errorResponse{
			Error:     "upstream request failed",
			RequestID: GetRequestID(r.Context()),
		}
		if terr.Kind == submission.KindStatus {
			resp.Error = "upstream rejected the document"
			resp.UpstreamStatus = terr.StatusCode
			resp.UpstreamBody = string(terr.Body)
		} else {
			resp.Detail = terr.Err.Error()
		}
		writeJSON(w, http.StatusBadGateway, resp)

	case gferrors.IsValidationError(err):
		writeError(w, r, http.StatusBadRequest, "invalid submission", err)

	default:
		s.logger.Error("submission failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "submission failed", err)
	}
}

// retryAfter renders d as whole seconds for a Retry-After header. A window
// that has already rolled over still asks for one second.
func retryAfter(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func requestFormat(r *http.Request) document.Format {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return document.FormatJSON
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return document.FormatYAML
	default:
		return document.FormatJSON
	}
}
