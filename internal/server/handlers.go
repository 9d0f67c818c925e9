package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/layout"
	"github.com/matzehuels/netlayout/pkg/observability"
	"github.com/matzehuels/netlayout/pkg/pipeline"
)

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

type layoutResponse struct {
	RequestID string         `json:"request_id"`
	Layout    *layout.Result `json:"layout"`
	// DOT and SVG are plain text; PNG and PDF are base64.
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Skipped   []string          `json:"skipped,omitempty"`
	Cached    bool              `json:"cached"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := layoutResponse{
		RequestID: RequestIDFrom(r.Context()),
		Layout:    result.Layout,
		Skipped:   result.Netlist.Skipped,
		Cached:    result.CacheInfo.LayoutHit,
	}
	for format, data := range result.Artifacts {
		switch format {
		case pipeline.FormatJSON:
		case pipeline.FormatDOT, pipeline.FormatSVG:
			resp.setArtifact(format, string(data))
		default:
			resp.setArtifact(format, base64.StdEncoding.EncodeToString(data))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (r *layoutResponse) setArtifact(format, data string) {
	if r.Artifacts == nil {
		r.Artifacts = make(map[string]string)
	}
	r.Artifacts[format] = data
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := decodeOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[format])
}

// decodeOptions reads the request body. Only inline netlists are accepted;
// Path is never set from a request.
func decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	opts.Path = ""
	if opts.Netlist == "" {
		return opts, errors.New(errors.ErrCodeInvalidInput, "netlist is required")
	}
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	switch r.Context().Err() {
	case nil:
	case context.DeadlineExceeded:
		status, code = http.StatusGatewayTimeout, errors.ErrCodeTimeout
	default:
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestIDFrom(r.Context()), "err", err)
	}
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)

	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError && code == errors.ErrCodeInternal {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFrom(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
