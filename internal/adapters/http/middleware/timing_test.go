package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"facultyhub/internal/adapters/http/perf"
	"facultyhub/internal/adapters/metrics"
)

func serveTimed(collector *perf.Collector, recorder *metrics.Recorder, method, path string, h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Timing(collector, recorder, 0)(h).ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestTiming_RecordsEntryPerRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{"explicit status", http.MethodGet, "/api/dashboard", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, http.StatusNotFound},
		{"implicit 200", http.MethodGet, "/dashboard", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("ok"))
		}, http.StatusOK},
		{"created", http.MethodPost, "/api/change-requests", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := perf.NewCollector(10)
			rec := serveTimed(collector, nil, tt.method, tt.path, tt.handler)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
			if len(snap.SlowestPaths) != 1 {
				t.Fatalf("SlowestPaths = %+v, want one path", snap.SlowestPaths)
			}
			if want := tt.method + " " + tt.path; snap.SlowestPaths[0].Path != want {
				t.Errorf("Path = %q, want %q", snap.SlowestPaths[0].Path, want)
			}
			if snap.SlowestPaths[0].AvgMs < 0 {
				t.Errorf("AvgMs = %v", snap.SlowestPaths[0].AvgMs)
			}
		})
	}
}

func TestTiming_SkipsMetricsScrape(t *testing.T) {
	collector := perf.NewCollector(10)
	serveTimed(collector, nil, http.MethodGet, "/metrics", func(http.ResponseWriter, *http.Request) {})
	if collector.TotalRecorded() != 0 {
		t.Errorf("TotalRecorded = %d, want 0", collector.TotalRecorded())
	}
}

func TestTiming_NilCollectorAndRecorder(t *testing.T) {
	rec := serveTimed(nil, nil, http.MethodGet, "/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestTiming_PanicStillRecorded(t *testing.T) {
	collector := perf.NewCollector(10)
	defer func() {
		if recover() == nil {
			t.Fatal("panic was swallowed")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
		}
	}()
	serveTimed(collector, nil, http.MethodGet, "/api/admin/overview", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

func TestTiming_PooledWriterDoesNotLeakStatus(t *testing.T) {
	collector := perf.NewCollector(10)
	serveTimed(collector, nil, http.MethodGet, "/api/admin/sessions", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	serveTimed(collector, nil, http.MethodGet, "/api/admin/faculty", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("{}"))
	})

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	for _, p := range snap.SlowestPaths {
		if p.Path == "GET /api/admin/faculty" && p.Failures != 0 {
			t.Errorf("second request inherited the 502: %+v", p)
		}
	}
}

func TestTiming_ServerErrorsMarkedFailed(t *testing.T) {
	collector := perf.NewCollector(10)
	serveTimed(collector, nil, http.MethodGet, "/admin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Failures != 1 {
		t.Errorf("SlowestPaths = %+v, want one failure", snap.SlowestPaths)
	}
}

func TestTiming_CountsPrometheus(t *testing.T) {
	recorder := metrics.New()
	serveTimed(nil, recorder, http.MethodGet, "/dashboard", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `facultyhub_http_requests_total{code="5xx",method="GET"} 1`) {
		t.Errorf("http counter not incremented:\n%s", rec.Body.String())
	}
}

func BenchmarkTiming(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector, nil, 0)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
		}
	})
}
