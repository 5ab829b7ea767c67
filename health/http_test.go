package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serveReport(t *testing.T, agg *Aggregator) (*httptest.ResponseRecorder, Report) {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(agg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	return rec, report
}

func TestHandler_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{"healthy", Healthy("ok"), http.StatusOK, "healthy"},
		{"degraded", Degraded("window usage high"), http.StatusOK, "degraded"},
		{"unhealthy", Unhealthy("callers waiting", ErrCheckFailed), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			result := tt.result
			agg.Register("limiter", NewCheckerFunc("limiter", func(context.Context) Result { return result }))

			rec, report := serveReport(t, agg)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if report.Status != tt.wantBody {
				t.Errorf("report status = %q, want %q", report.Status, tt.wantBody)
			}
			if report.Checks["limiter"].Status != tt.wantBody {
				t.Errorf("check status = %q, want %q", report.Checks["limiter"].Status, tt.wantBody)
			}
		})
	}
}

func TestHandler_ReportsDetailsAndErrors(t *testing.T) {
	agg := NewAggregator()
	agg.Register("limiter", NewSaturationChecker("limiter", fakeSaturation{occupancy: 4, waiting: 2, limit: 4}, SaturationCheckerConfig{}))

	_, report := serveReport(t, agg)
	check := report.Checks["limiter"]
	if check.Error != ErrCheckFailed.Error() {
		t.Errorf("error = %q, want %q", check.Error, ErrCheckFailed.Error())
	}
	// JSON numbers decode as float64.
	if check.Details["waiting"] != float64(2) {
		t.Errorf("details[waiting] = %v, want 2", check.Details["waiting"])
	}
	if check.Duration == "" {
		t.Error("expected duration")
	}
	if _, err := time.Parse(time.RFC3339, report.Timestamp); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", report.Timestamp, err)
	}
}

func TestHandler_EmptyAggregator(t *testing.T) {
	rec, report := serveReport(t, NewAggregator())
	if rec.Code != http.StatusOK || report.Status != "healthy" {
		t.Errorf("empty aggregator = %d %q, want 200 healthy", rec.Code, report.Status)
	}
}

func TestNewReport(t *testing.T) {
	results := map[string]Result{
		"redis": Unhealthy("redis unreachable", errors.New("dial tcp: refused")).WithDuration(3 * time.Millisecond),
	}
	report := NewReport(StatusUnhealthy, results)

	if report.Status != "unhealthy" {
		t.Errorf("Status = %q", report.Status)
	}
	got := report.Checks["redis"]
	if got.Message != "redis unreachable" || got.Error != "dial tcp: refused" || got.Duration != "3ms" {
		t.Errorf("check = %+v", got)
	}
}
