package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/db"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/emg"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/ingest"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/report"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/session"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/units"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxUploadBytes bounds one recording upload (multi-minute multi-channel
// sessions stay well under this).
const maxUploadBytes = 256 << 20

type Server struct {
	db    *db.DB
	cfg   emg.Config
	units string
}

func NewServer(database *db.DB, cfg emg.Config, amplitudeUnits string) *Server {
	return &Server{
		db:    database,
		cfg:   cfg,
		units: amplitudeUnits,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.analyzeRecording)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/sessions/", s.showSession)
	mux.HandleFunc("/api/stats", s.showComplianceStats)
	mux.HandleFunc("/api/report/", s.showReport)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// analyzeRecording accepts a multipart recording upload, runs the detection
// engine over every channel, persists the session and returns the result.
// Form fields: "recording" (CSV file, required), "metadata" (JSON sidecar,
// optional).
func (s *Server) analyzeRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("recording")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'recording' file field")
		return
	}
	defer file.Close()

	meta := ingest.Metadata{SampleRateHz: ingest.DefaultSampleRateHz}
	if metaField := r.FormValue("metadata"); metaField != "" {
		if err := json.Unmarshal([]byte(metaField), &meta); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid metadata: %v", err))
			return
		}
		if meta.SampleRateHz <= 0 {
			meta.SampleRateHz = ingest.DefaultSampleRateHz
		}
	}

	rec, err := ingest.Read(io.LimitReader(file, maxUploadBytes), meta)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse recording: %v", err))
		return
	}

	result := session.Analyse(r.Context(), header.Filename, rec, s.cfg)
	if err := s.db.SaveSession(result); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to persist session: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write session result")
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	sessions, err := s.db.Sessions(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.SessionRow{}
	}

	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write sessions")
	}
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if id == "" || strings.Contains(id, "/") {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	detail, err := s.db.Session(id)
	if errors.Is(err, sql.ErrNoRows) {
		s.writeJSONError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve session: %v", err))
		return
	}

	s.convertDetailAmplitudes(detail)
	if err := json.NewEncoder(w).Encode(detail); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write session")
	}
}

func (s *Server) showComplianceStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	days := 1 // default value
	if d := r.URL.Query().Get("days"); d != "" {
		parsedDays, err := strconv.Atoi(d)
		if err != nil || parsedDays < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'days' parameter")
			return
		}
		days = parsedDays
	}

	rollup, err := s.db.ComplianceRollup(days)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve compliance stats: %v", err))
		return
	}
	if rollup == nil {
		rollup = []db.ComplianceRow{}
	}

	if err := json.NewEncoder(w).Encode(rollup); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write compliance stats")
	}
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/report/")
	if id == "" || strings.Contains(id, "/") {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	detail, err := s.db.Session(id)
	if errors.Is(err, sql.ErrNoRows) {
		s.writeJSONError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve session: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderSession(w, detail); err != nil {
		log.Printf("failed to render report for session %s: %v", id, err)
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"version":   version.String(),
		"units":     s.units,
		"detection": s.cfg,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
	}
}

// convertDetailAmplitudes applies unit conversion to every amplitude field of
// a session detail. The database stores amplitudes in microvolts.
func (s *Server) convertDetailAmplitudes(detail *db.SessionDetail) {
	for i := range detail.Channels {
		detail.Channels[i].Threshold = units.ConvertAmplitude(detail.Channels[i].Threshold, s.units)
	}
	for i := range detail.Contractions {
		c := &detail.Contractions[i]
		c.PeakAmplitude = units.ConvertAmplitude(c.PeakAmplitude, s.units)
		c.MeanAmplitude = units.ConvertAmplitude(c.MeanAmplitude, s.units)
	}
}
