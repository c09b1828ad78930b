package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestRecorder_RecordCalls(t *testing.T) {
	r := New()
	r.ObserveRecordCall("Sessions", "list", OutcomeOK, 120*time.Millisecond)
	r.ObserveRecordCall("Sessions", "list", OutcomeOK, 80*time.Millisecond)
	r.ObserveRecordCall("Faculty", "list", OutcomeStatus, time.Second)

	body := scrape(t, r)
	for _, want := range []string{
		`facultyhub_records_requests_total{collection="Sessions",op="list",outcome="ok"} 2`,
		`facultyhub_records_requests_total{collection="Faculty",op="list",outcome="status"} 1`,
		`facultyhub_records_request_duration_seconds_count{collection="Sessions",op="list"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestRecorder_HTTPAndMessages(t *testing.T) {
	r := New()
	r.ObserveHTTP("GET", 200)
	r.ObserveHTTP("GET", 204)
	r.ObserveHTTP("POST", 502)
	r.AddMessagesSent(3)
	r.AddMessagesSent(0)

	body := scrape(t, r)
	for _, want := range []string{
		`facultyhub_http_requests_total{code="2xx",method="GET"} 2`,
		`facultyhub_http_requests_total{code="5xx",method="POST"} 1`,
		`facultyhub_hub_emails_sent_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.ObserveRecordCall("Faculty", "list", OutcomeOK, time.Millisecond)
	r.ObserveHTTP("GET", 200)
	r.AddMessagesSent(1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil recorder handler status = %d, want 404", rec.Code)
	}
}

func TestNew_Independent(t *testing.T) {
	a, b := New(), New()
	a.AddMessagesSent(5)
	if strings.Contains(scrape(t, b), "facultyhub_hub_emails_sent_total 5") {
		t.Error("recorders share state")
	}
}
