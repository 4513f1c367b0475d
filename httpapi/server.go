// Package httpapi exposes the identify/ingest/catalogue endpoints spec §6
// describes as the external HTTP surface. Grounded on the corpus's
// multipart-upload handler shape (writeJSON/writeError helpers, logging+CORS
// middleware).
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"shazoom/catalogue"
	"shazoom/config"
	"shazoom/errs"
	"shazoom/identify"
	"shazoom/ingest"
	"shazoom/internal/applog"
	"shazoom/store"
)

// Server wires the core pipeline to an HTTP mux.
type Server struct {
	Store     store.FingerprintStore
	Catalogue *catalogue.Catalogue
	Extractor config.ExtractorConfig
	Matcher   config.MatcherConfig
	Logger    *slog.Logger
}

// New builds a Server. logger must not be nil; construct it once at startup
// via internal/applog and pass it here explicitly.
func New(s store.FingerprintStore, ecfg config.ExtractorConfig, mcfg config.MatcherConfig, logger *slog.Logger) *Server {
	return &Server{
		Store:     s,
		Catalogue: catalogue.New(s),
		Extractor: ecfg,
		Matcher:   mcfg,
		Logger:    logger,
	}
}

// Routes builds the mux. Wrap the result with Middleware before serving.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /identify", s.handleIdentify)
	mux.HandleFunc("POST /recordings", s.handleIngest)
	mux.HandleFunc("GET /recordings", s.handleList)
	mux.HandleFunc("GET /recordings/{id}", s.handleGet)
	mux.HandleFunc("DELETE /recordings/{id}", s.handleDelete)
	mux.HandleFunc("GET /stats", s.handleStats)
	return mux
}

// Middleware adds request logging and permissive CORS, matching the
// corpus's serve-subcommand middleware stack.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		s.Logger.Info("request", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := saveUpload(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer cleanup()

	m, err := identify.Identify(r.Context(), s.Store, s.Extractor, s.Matcher, path)
	if err != nil {
		s.logErr(r.Context(), "identify failed", err)
		writeError(w, statusFor(err), err)
		return
	}

	if m == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"matched":        false,
			"score":          0,
			"confidence_pct": 0.0,
		})
		return
	}

	resp := map[string]any{
		"matched":        true,
		"score":          m.Score,
		"confidence_pct": m.ConfidencePct,
	}
	if rec, err := s.Store.Get(r.Context(), m.RecordingID); err == nil {
		resp["recording_id"] = rec.ID
		resp["title"] = rec.Title
		resp["artist"] = rec.Artist
		resp["album"] = rec.Album
		resp["duration"] = rec.DurationSec
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := saveUpload(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer cleanup()

	title := r.FormValue("title")
	artist := r.FormValue("artist")
	album := r.FormValue("album")
	if title == "" || artist == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("title and artist are required"))
		return
	}

	res, err := ingest.Ingest(r.Context(), s.Store, s.Extractor, ingest.Request{
		Path: path, Title: title, Artist: artist, Album: album,
	})
	if err != nil {
		s.logErr(r.Context(), "ingest failed", err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"recording_id": res.RecordingID,
		"tuple_count":  res.TupleCount,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Catalogue.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.Catalogue.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Catalogue.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Catalogue.Stats(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) logErr(ctx context.Context, msg string, err error) {
	if s.Logger == nil {
		return
	}
	applog.ErrorContext(ctx, s.Logger, msg, err)
}

func saveUpload(r *http.Request, field string) (path string, cleanup func(), err error) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		return "", func() {}, fmt.Errorf("parsing multipart form: %w", err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", func() {}, fmt.Errorf("reading form file %q: %w", field, err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "shazoom-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", func() {}, err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", func() {}, err
	}

	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func statusFor(err error) int {
	switch {
	case errs.Is(err, errs.UnsupportedFormat), errs.Is(err, errs.InvalidParameters):
		return http.StatusBadRequest
	case errs.Is(err, errs.DecodeFailed), errs.Is(err, errs.Unfingerprintable):
		return http.StatusUnprocessableEntity
	case errs.Is(err, errs.NotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.StoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
