package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.FramesEmitted.Add(3)
	m.Detections.Add(2)
	m.ActiveStreams.Add(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		"weaponcam_frames_emitted_total 3",
		"weaponcam_detections_total 2",
		"weaponcam_active_streams 1",
		"weaponcam_pipeline_failures_total 0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in metrics output:\n%s", want, text)
		}
	}
}
