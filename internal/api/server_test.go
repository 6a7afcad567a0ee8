package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/db"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/emg"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/session"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/units"
)

func newTestServer(t *testing.T, amplitudeUnits string) *Server {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewServer(database, emg.DefaultConfig(), amplitudeUnits)
}

// pulseCSV is a single-channel recording with one clear burst: one second of
// low baseline, 300 ms at high amplitude, another second of baseline.
func pulseCSV() string {
	var b strings.Builder
	b.WriteString("CH1\n")
	for i := 0; i < 2300; i++ {
		if i >= 1000 && i < 1300 {
			b.WriteString("100.0\n")
		} else {
			b.WriteString("1.0\n")
		}
	}
	return b.String()
}

func postRecording(t *testing.T, mux *http.ServeMux, csvBody, metadata string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("recording", "pulse.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(csvBody)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if metadata != "" {
		if err := mw.WriteField("metadata", metadata); err != nil {
			t.Fatalf("write metadata field: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestAnalyzeAndFetchSession(t *testing.T) {
	srv := newTestServer(t, units.MicroV)
	mux := srv.ServeMux()

	meta := `{"sampling_rate_hz": 1000, "mvc_values": {"CH1": 100}}`
	rr := postRecording(t, mux, pulseCSV(), meta)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST /api/analyze = %d, body %s", rr.Code, rr.Body.String())
	}

	var result session.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode analyze response: %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("analyze response has empty session id")
	}
	if len(result.Channels) != 1 {
		t.Fatalf("got %d channels, want 1", len(result.Channels))
	}
	ch := result.Channels[0]
	if ch.Error != "" {
		t.Fatalf("channel error: %s", ch.Error)
	}
	if ch.Analytics.TotalContractions < 1 {
		t.Fatalf("got %d contractions, want at least 1", ch.Analytics.TotalContractions)
	}

	// The session must now be listed.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/sessions = %d", rr.Code)
	}
	var sessions []db.SessionRow
	if err := json.Unmarshal(rr.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != result.SessionID {
		t.Fatalf("sessions = %+v, want one row with id %s", sessions, result.SessionID)
	}

	// And retrievable in full.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/"+result.SessionID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/sessions/{id} = %d, body %s", rr.Code, rr.Body.String())
	}
	var detail db.SessionDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode session detail: %v", err)
	}
	if len(detail.Channels) != 1 || detail.Channels[0].ChannelName != "CH1" {
		t.Fatalf("detail channels = %+v, want CH1", detail.Channels)
	}
	if detail.Channels[0].Threshold != 75 {
		t.Fatalf("threshold = %v, want 75 (75%% of MVC 100)", detail.Channels[0].Threshold)
	}
	if len(detail.Contractions) < 1 {
		t.Fatal("detail has no contractions")
	}

	// The HTML report renders for the same id.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/report/"+result.SessionID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/report/{id} = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("report content type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Contraction Quality") {
		t.Fatal("report missing quality chart")
	}

	// Rollup counts the analysed channel.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats?days=7", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/stats = %d", rr.Code)
	}
	var rollup []db.ComplianceRow
	if err := json.Unmarshal(rr.Body.Bytes(), &rollup); err != nil {
		t.Fatalf("decode rollup: %v", err)
	}
	if len(rollup) != 1 || rollup[0].ChannelName != "CH1" {
		t.Fatalf("rollup = %+v, want one CH1 row", rollup)
	}
}

func TestAnalyzeAmplitudeUnitsConversion(t *testing.T) {
	srv := newTestServer(t, units.MilliV)
	mux := srv.ServeMux()

	meta := `{"sampling_rate_hz": 1000, "mvc_values": {"CH1": 100}}`
	rr := postRecording(t, mux, pulseCSV(), meta)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST /api/analyze = %d", rr.Code)
	}
	var result session.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode analyze response: %v", err)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/"+result.SessionID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/sessions/{id} = %d", rr.Code)
	}
	var detail db.SessionDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode session detail: %v", err)
	}
	// Stored in microvolts, served in millivolts.
	if got := detail.Channels[0].Threshold; got != 0.075 {
		t.Fatalf("threshold = %v mV, want 0.075", got)
	}
}

func TestAnalyzeRejectsGet(t *testing.T) {
	mux := newTestServer(t, units.MicroV).ServeMux()
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/analyze = %d, want 405", rr.Code)
	}
}

func TestAnalyzeMissingRecordingField(t *testing.T) {
	mux := newTestServer(t, units.MicroV).ServeMux()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("metadata", `{}`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("analyze without file = %d, want 400", rr.Code)
	}
}

func TestAnalyzeMalformedCSV(t *testing.T) {
	mux := newTestServer(t, units.MicroV).ServeMux()
	rr := postRecording(t, mux, "CH1\n1.0\nnot-a-number\n", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed csv = %d, want 400", rr.Code)
	}
}

func TestShowSessionNotFound(t *testing.T) {
	mux := newTestServer(t, units.MicroV).ServeMux()
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/no-such-id", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing session = %d, want 404", rr.Code)
	}
}

func TestListSessionsBadLimit(t *testing.T) {
	mux := newTestServer(t, units.MicroV).ServeMux()
	for _, limit := range []string{"0", "-3", "abc"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/sessions?limit=%s", limit), nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s = %d, want 400", limit, rr.Code)
		}
	}
}

func TestShowConfig(t *testing.T) {
	mux := newTestServer(t, units.MilliV).ServeMux()
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/config = %d", rr.Code)
	}
	var cfg struct {
		Units     string     `json:"units"`
		Detection emg.Config `json:"detection"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Units != units.MilliV {
		t.Fatalf("units = %q, want %q", cfg.Units, units.MilliV)
	}
	if cfg.Detection.ThresholdFactor != emg.DefaultThresholdFactor {
		t.Fatalf("threshold factor = %v, want %v", cfg.Detection.ThresholdFactor, emg.DefaultThresholdFactor)
	}
}
