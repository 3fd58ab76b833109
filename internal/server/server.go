// Package server implements the phylotangle HTTP service.
//
// The service exposes the tree engine over JSON: Robinson-Foulds
// distances, phylogram and tanglegram rendering, and a named-tree
// store. Rendered artifacts are cached under content keys so repeated
// requests for the same tree and options hit the cache.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/phylotangle/phylotangle/pkg/cache"
	"github.com/phylotangle/phylotangle/pkg/distance"
	perrors "github.com/phylotangle/phylotangle/pkg/errors"
	"github.com/phylotangle/phylotangle/pkg/layout"
	"github.com/phylotangle/phylotangle/pkg/newick"
	"github.com/phylotangle/phylotangle/pkg/render"
	"github.com/phylotangle/phylotangle/pkg/store"
	"github.com/phylotangle/phylotangle/pkg/tree"
)

// Server holds the service dependencies.
type Server struct {
	logger *log.Logger
	cache  cache.Cache
	keyer  cache.Keyer
	store  store.Store

	defaultWidth  float64
	defaultHeight float64
	defaultMargin float64
}

// Options configures a Server.
type Options struct {
	Logger *log.Logger
	Cache  cache.Cache // nil disables caching
	Store  store.Store // nil disables the /api/trees endpoints

	Width  float64
	Height float64
	Margin float64
}

// New creates a Server with the given dependencies.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	return &Server{
		logger:        opts.Logger,
		cache:         opts.Cache,
		keyer:         cache.NewDefaultKeyer(),
		store:         opts.Store,
		defaultWidth:  opts.Width,
		defaultHeight: opts.Height,
		defaultMargin: opts.Margin,
	}
}

// Handler returns the chi router for the service.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/distance", s.handleDistance)
	r.Post("/api/render", s.handleRender)
	r.Post("/api/tangle", s.handleTangle)

	if s.store != nil {
		r.Route("/api/trees", func(r chi.Router) {
			r.Get("/", s.handleListTrees)
			r.Put("/{name}", s.handleSaveTree)
			r.Get("/{name}", s.handleGetTree)
			r.Delete("/{name}", s.handleDeleteTree)
		})
	}
	return r
}

// requestID tags every request with a UUID for log correlation.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"id", r.Context().Value(ctxKeyRequestID),
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed", time.Since(start).Round(time.Millisecond))
	})
}

type ctxKey int

const ctxKeyRequestID ctxKey = 0

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type distanceRequest struct {
	NewickA string `json:"newick_a"`
	NewickB string `json:"newick_b"`
}

type distanceResponse struct {
	Distance int `json:"distance"`
}

func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	var req distanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, perrors.New(perrors.ErrCodeInvalidFormat, "invalid JSON body"))
		return
	}

	a, err := s.decodeTree(w, req.NewickA)
	if err != nil {
		return
	}
	b, err := s.decodeTree(w, req.NewickB)
	if err != nil {
		return
	}

	d, err := distance.RobinsonFoulds(a, b)
	if err != nil {
		if errors.Is(err, distance.ErrLeafSetMismatch) {
			s.writeError(w, http.StatusUnprocessableEntity,
				perrors.Wrap(perrors.ErrCodeLeafSetMismatch, err, "trees are not comparable"))
			return
		}
		s.writeError(w, http.StatusInternalServerError, perrors.Wrap(perrors.ErrCodeInternal, err, "distance failed"))
		return
	}
	writeJSON(w, http.StatusOK, distanceResponse{Distance: d})
}

type renderRequest struct {
	Newick      string  `json:"newick"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Margin      float64 `json:"margin,omitempty"`
	Orientation string  `json:"orientation,omitempty"` // "left" (default) or "right"
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, perrors.New(perrors.ErrCodeInvalidFormat, "invalid JSON body"))
		return
	}
	width, height, margin := s.frame(req.Width, req.Height, req.Margin)

	orient := layout.Left
	if req.Orientation == "right" {
		orient = layout.Right
	}

	keyOpts := cache.LayoutKeyOpts{Width: width, Height: height, Margin: margin, Orientation: req.Orientation}
	key := s.keyer.ArtifactKey(s.keyer.LayoutKey(s.keyer.TreeKey(req.Newick), keyOpts), cache.ArtifactKeyOpts{Format: "svg", Labels: true})
	if data, hit, _ := s.cache.Get(r.Context(), key); hit {
		writeSVG(w, data)
		return
	}

	root, err := s.decodeTree(w, req.Newick)
	if err != nil {
		return
	}
	g, err := layout.Snapshot(root)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, perrors.Wrap(perrors.ErrCodeEmptyTree, err, "nothing to lay out"))
		return
	}
	if err := layout.Build(g, width, height, margin, orient); err != nil {
		s.writeError(w, http.StatusBadRequest, perrors.Wrap(perrors.ErrCodeInvalidFrame, err, "layout failed"))
		return
	}

	svg := render.RenderSVG(g, width, height)
	_ = s.cache.Set(r.Context(), key, svg, cache.DefaultTTL)
	writeSVG(w, svg)
}

type tangleRequest struct {
	NewickA string  `json:"newick_a"`
	NewickB string  `json:"newick_b"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Margin  float64 `json:"margin,omitempty"`
}

func (s *Server) handleTangle(w http.ResponseWriter, r *http.Request) {
	var req tangleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, perrors.New(perrors.ErrCodeInvalidFormat, "invalid JSON body"))
		return
	}
	width, height, margin := s.frame(req.Width, req.Height, req.Margin)

	keyOpts := cache.LayoutKeyOpts{Width: width, Height: height, Margin: margin, Orientation: "tangle"}
	key := s.keyer.ArtifactKey(s.keyer.LayoutKey(s.keyer.TreeKey(req.NewickA+"\x00"+req.NewickB), keyOpts), cache.ArtifactKeyOpts{Format: "svg", Labels: true})
	if data, hit, _ := s.cache.Get(r.Context(), key); hit {
		writeSVG(w, data)
		return
	}

	a, err := s.decodeTree(w, req.NewickA)
	if err != nil {
		return
	}
	b, err := s.decodeTree(w, req.NewickB)
	if err != nil {
		return
	}

	t, err := layout.BuildTanglegram(a, b, width, height, margin)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, perrors.Wrap(perrors.ErrCodeInvalidFrame, err, "tanglegram layout failed"))
		return
	}

	svg := render.RenderTanglegramSVG(t)
	_ = s.cache.Set(r.Context(), key, svg, cache.DefaultTTL)
	writeSVG(w, svg)
}

// =============================================================================
// Tree store handlers
// =============================================================================

type saveTreeRequest struct {
	Newick    string `json:"newick"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

func (s *Server) handleSaveTree(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req saveTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, perrors.New(perrors.ErrCodeInvalidFormat, "invalid JSON body"))
		return
	}

	root, err := s.decodeTree(w, req.Newick)
	if err != nil {
		return
	}

	now := time.Now().UTC()
	entry := store.Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Newick:    req.Newick,
		Leaves:    tree.LeafCount(root),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(r.Context(), entry, req.Overwrite); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.writeError(w, http.StatusConflict, perrors.Wrap(perrors.ErrCodeStore, err, "tree exists"))
			return
		}
		s.writeError(w, http.StatusInternalServerError, perrors.Wrap(perrors.ErrCodeStore, err, "save failed"))
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, perrors.Wrap(perrors.ErrCodeTreeNotFound, err, "no such tree"))
			return
		}
		s.writeError(w, http.StatusInternalServerError, perrors.Wrap(perrors.ErrCodeStore, err, "load failed"))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, perrors.Wrap(perrors.ErrCodeStore, err, "list failed"))
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, perrors.Wrap(perrors.ErrCodeTreeNotFound, err, "no such tree"))
			return
		}
		s.writeError(w, http.StatusInternalServerError, perrors.Wrap(perrors.ErrCodeStore, err, "delete failed"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

// decodeTree parses Newick text, writing a 400 response on failure.
// Returns a non-nil error only to signal that the response was written.
func (s *Server) decodeTree(w http.ResponseWriter, text string) (*tree.Node, error) {
	root, err := newick.Decode(text)
	if err != nil {
		s.writeError(w, http.StatusBadRequest,
			perrors.Wrap(perrors.ErrCodeInvalidNewick, err, "cannot parse tree"))
		return nil, err
	}
	return root, nil
}

func (s *Server) frame(width, height, margin float64) (float64, float64, float64) {
	if width <= 0 {
		width = s.defaultWidth
	}
	if height <= 0 {
		height = s.defaultHeight
	}
	if margin <= 0 {
		margin = s.defaultMargin
	}
	return width, height, margin
}

type errorResponse struct {
	Code    perrors.Code `json:"code"`
	Message string       `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err *perrors.Error) {
	s.logger.Warn("request failed", "code", err.Code, "error", err)
	writeJSON(w, status, errorResponse{Code: err.Code, Message: perrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSVG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
