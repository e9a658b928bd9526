package server

import (
	"encoding/json"
	"io"
	"maps"
	"net/http"

	"github.com/matzehuels/nodeformat/pkg/buildinfo"
	"github.com/matzehuels/nodeformat/pkg/cache"
	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/graphio"
	"github.com/matzehuels/nodeformat/pkg/layout"
	"github.com/matzehuels/nodeformat/pkg/measure"
	"github.com/matzehuels/nodeformat/pkg/render"
)

type formatRequest struct {
	Graph graphio.Document `json:"graph"`
	// Node is the node to format around. Empty formats every subgraph.
	Node   string          `json:"node,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

type formatResponse struct {
	Result *layout.Result    `json:"result"`
	Graph  *graphio.Document `json:"graph"`
}

type formatAllResponse struct {
	Batch *layout.BatchResult `json:"batch"`
	Graph *graphio.Document   `json:"graph"`
}

type renderRequest struct {
	formatRequest
	// Output is "svg" (default), "png" or "dot".
	Output string `json:"output,omitempty"`
	// Renderer is "native" (default) or "graphviz". PNG needs graphviz.
	Renderer string `json:"renderer,omitempty"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if _, err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Node == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "node is required"))
		return
	}
	g, sizes, engine, err := s.prepare(&req, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := engine.Format(r.Context(), g, graph.NodeID(req.Node))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formatResponse{Result: res, Graph: graphio.FromGraph(g, sizes)})
}

func (s *Server) handleFormatAll(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if _, err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	g, sizes, engine, err := s.prepare(&req, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	batch, err := engine.FormatAll(r.Context(), g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formatAllResponse{Batch: batch, Graph: graphio.FromGraph(g, sizes)})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	body, err := decode(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Output == "" {
		req.Output = "svg"
	}
	if req.Renderer == "" {
		req.Renderer = "native"
	}
	contentType, err := contentTypeFor(req.Output, req.Renderer)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	key, err := cache.Key("render", s.cfg, json.RawMessage(body))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "cache key"))
		return
	}
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		writeBytes(w, contentType, data)
		return
	}

	rec := &render.Recorder{}
	g, sizes, engine, err := s.prepare(&req.formatRequest, rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var deferred []*layout.Result
	if req.Node != "" {
		res, err := engine.Format(ctx, g, graph.NodeID(req.Node))
		if err != nil {
			s.writeError(w, err)
			return
		}
		if res.Status == layout.StatusDeferred {
			deferred = append(deferred, res)
		}
	} else {
		batch, err := engine.FormatAll(ctx, g)
		if err != nil {
			s.writeError(w, err)
			return
		}
		deferred = batch.Deferred()
	}
	if len(deferred) > 0 {
		s.writeError(w, errors.New(errors.ErrCodeMissingSize, "%d node(s) have no size, first under root %q",
			len(deferred[0].Missing), deferred[0].Root))
		return
	}

	data, err := draw(r, g, sizes, rec, req.Output, req.Renderer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", "error", err)
	}
	writeBytes(w, contentType, data)
}

// prepare builds the graph and an engine for one request.
func (s *Server) prepare(req *formatRequest, drawer render.Drawer) (*graph.Graph, *measure.Cache, *layout.Engine, error) {
	cfg, err := s.requestConfig(req.Config)
	if err != nil {
		return nil, nil, nil, err
	}
	g, sizes, err := graphio.ToGraph(&req.Graph)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []layout.EngineOption{layout.WithLogger(s.logger)}
	if drawer != nil {
		opts = append(opts, layout.WithDrawer(drawer))
	}
	engine, err := layout.NewEngine(cfg, sizes, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return g, sizes, engine, nil
}

// requestConfig overlays the fields present in raw on the base configuration.
func (s *Server) requestConfig(raw json.RawMessage) (config.Config, error) {
	cfg := s.cfg
	cfg.Formatters = maps.Clone(s.cfg.Formatters)
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return config.Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	return cfg, nil
}

func draw(r *http.Request, g *graph.Graph, sizes *measure.Cache, rec *render.Recorder, output, renderer string) ([]byte, error) {
	if output == "dot" {
		return []byte(render.ToDOT(g, sizes, render.DOTOptions{Pinned: true})), nil
	}
	if renderer == "native" {
		return render.RenderSVG(g, sizes, render.WithOverlay(rec.Shapes())), nil
	}
	dot := render.ToDOT(g, sizes, render.DOTOptions{Pinned: true})
	data, err := render.RenderGraphviz(r.Context(), dot, render.Format(output), true)
	if err != nil && errors.GetCode(err) == "" {
		err = errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return data, err
}

func contentTypeFor(output, renderer string) (string, error) {
	switch renderer {
	case "native", "graphviz":
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown renderer %q", renderer)
	}
	switch output {
	case "svg":
		return "image/svg+xml", nil
	case "png":
		if renderer == "native" {
			return "", errors.New(errors.ErrCodeUnsupported, "png output needs the graphviz renderer")
		}
		return "image/png", nil
	case "dot":
		return "text/vnd.graphviz", nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown output %q", output)
	}
}

// decode reads the whole body into v and returns the raw bytes.
func decode(w http.ResponseWriter, r *http.Request, v any) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	return body, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
