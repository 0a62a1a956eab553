package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/treeize/pkg/buildinfo"
	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/pipeline"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

type document = snapshot.Document[viewer.Card]

// layoutRequest is the body of POST /v1/layout. Only Document is
// required; the rest overrides the server defaults.
type layoutRequest struct {
	Document *document `json:"document"`
	Formats  []string  `json:"formats,omitempty"`
	Axis     string    `json:"axis,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	Detailed bool      `json:"detailed,omitempty"`
	Refresh  bool      `json:"refresh,omitempty"`
	Scale    float64   `json:"scale,omitempty"`
}

// layoutOverrides is the body of POST /v1/documents/{id}/layout.
type layoutOverrides struct {
	Axis    string `json:"axis,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Refresh bool   `json:"refresh,omitempty"`
}

type layoutResponse struct {
	Document *document `json:"document"`
	DocHash  string    `json:"doc_hash"`
	// Artifacts holds text formats verbatim and binary formats base64
	// encoded.
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Stats     statsResponse     `json:"stats"`
	Cache     cacheResponse     `json:"cache"`
}

type statsResponse struct {
	Nodes      int     `json:"nodes"`
	Wires      int     `json:"wires"`
	Roots      int     `json:"roots"`
	Fallback   bool    `json:"fallback,omitempty"`
	Unplaced   int     `json:"unplaced,omitempty"`
	LayoutMs   float64 `json:"layout_ms"`
	RenderMs   float64 `json:"render_ms,omitempty"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

type cacheResponse struct {
	LayoutHit  bool     `json:"layout_hit"`
	RenderHits []string `json:"render_hits,omitempty"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatGraphviz: "image/svg+xml",
	pipeline.FormatDOT:      "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatPNG:      "image/png",
	pipeline.FormatPDF:      "application/pdf",
	pipeline.FormatJSON:     "application/json",
}

var binaryFormats = map[string]bool{pipeline.FormatPNG: true, pipeline.FormatPDF: true}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

// handleLayout lays out the posted document. With ?format=<f> the single
// artifact is returned raw with its content type.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Document == nil {
		s.writeError(w, r, terrors.New(terrors.ErrCodeInvalidInput, "document is required"))
		return
	}
	if err := validateDocument(req.Document); err != nil {
		s.writeError(w, r, err)
		return
	}

	raw := r.URL.Query().Get("format")
	if raw != "" {
		req.Formats = []string{raw}
	}
	opts, err := s.options(req.Axis, req.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = req.Formats
	opts.Detailed = req.Detailed
	opts.Refresh = req.Refresh
	if req.Scale > 0 {
		opts.Scale = req.Scale
	}

	res, err := s.runner.Execute(r.Context(), req.Document, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if raw != "" {
		w.Header().Set("Content-Type", contentTypes[raw])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Artifacts[raw])
		return
	}
	writeJSON(w, http.StatusOK, newLayoutResponse(res))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []snapshot.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var doc document
	if err := s.decode(w, r, &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if doc.ID == "" {
		doc.ID = snapshot.NewID()
	}
	if err := validateDocument(&doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/documents/"+doc.ID)
	writeJSON(w, http.StatusCreated, &doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := terrors.ValidateDocumentID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := terrors.ValidateDocumentID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	var doc document
	if err := s.decode(w, r, &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if doc.ID != "" && doc.ID != id {
		s.writeError(w, r, terrors.New(terrors.ErrCodeInvalidInput, "body id %s does not match path id %s", doc.ID, id))
		return
	}
	doc.ID = id
	if err := validateDocument(&doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := terrors.ValidateDocumentID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLayoutDocument lays out a stored document and saves the new
// positions.
func (s *Server) handleLayoutDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := terrors.ValidateDocumentID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	var over layoutOverrides
	if r.ContentLength != 0 {
		if err := s.decode(w, r, &over); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	opts, err := s.options(over.Axis, over.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = nil
	opts.Refresh = over.Refresh

	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), res.Document); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLayoutResponse(res))
}

// options returns the server defaults with the wire axis and kind
// overridden by name.
func (s *Server) options(axis, kind string) (pipeline.Options, error) {
	opts := s.defaults
	if opts.Wire == (wire.Style{}) {
		opts.Wire = wire.DefaultStyle()
	}
	if axis != "" {
		a, ok := wire.ParseAxis(axis)
		if !ok {
			return opts, terrors.New(terrors.ErrCodeInvalidInput, "unknown axis %q", axis)
		}
		opts.Wire.Axis = a
		opts.Layout.Axis = a
	}
	if kind != "" {
		k, ok := wire.ParseKind(kind)
		if !ok {
			return opts, terrors.New(terrors.ErrCodeInvalidInput, "unknown wire kind %q", kind)
		}
		opts.Wire.Kind = k
	}
	return opts, nil
}

func validateDocument(doc *document) error {
	if doc.ID != "" {
		if err := terrors.ValidateDocumentID(doc.ID); err != nil {
			return err
		}
	}
	if err := terrors.ValidateTitle(doc.Name); err != nil {
		return err
	}
	for i := range doc.Nodes {
		if err := terrors.ValidateTitle(doc.Nodes[i].Value.Title); err != nil {
			return terrors.Wrap(terrors.ErrCodeInvalidDocument, err, "node %d", i)
		}
	}
	return doc.Validate()
}

func newLayoutResponse(res *pipeline.Result[viewer.Card]) layoutResponse {
	resp := layoutResponse{
		Document: res.Document,
		DocHash:  res.DocHash,
		Stats: statsResponse{
			Nodes:      res.Stats.Nodes,
			Wires:      res.Stats.Wires,
			Roots:      res.Stats.Roots,
			Fallback:   res.Stats.Fallback,
			Unplaced:   res.Stats.Unplaced,
			LayoutMs:   float64(res.Stats.LayoutTime.Microseconds()) / 1000,
			RenderMs:   float64(res.Stats.RenderTime.Microseconds()) / 1000,
			Degenerate: res.Stats.Degenerate(),
		},
		Cache: cacheResponse{
			LayoutHit:  res.CacheInfo.LayoutHit,
			RenderHits: res.CacheInfo.RenderHits,
		},
	}
	if len(res.Artifacts) > 0 {
		resp.Artifacts = make(map[string]string, len(res.Artifacts))
		for format, data := range res.Artifacts {
			if binaryFormats[format] {
				resp.Artifacts[format] = base64.StdEncoding.EncodeToString(data)
			} else {
				resp.Artifacts[format] = string(data)
			}
		}
	}
	return resp
}

// decode reads a JSON body of at most maxBody bytes into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			return err
		}
		return terrors.Wrap(terrors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := terrors.HTTPStatus(err)
	code := string(terrors.GetCode(err))
	if errors.As(err, new(*http.MaxBytesError)) {
		status, code = http.StatusRequestEntityTooLarge, string(terrors.ErrCodeInvalidInput)
	}
	if code == "" {
		code = string(terrors.ErrCodeInternal)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: terrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
