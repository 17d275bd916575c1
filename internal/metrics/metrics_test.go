package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAssessment(t *testing.T) {
	before := testutil.ToFloat64(Assessments.WithLabelValues("synthetic"))

	RecordAssessment("synthetic", 20*time.Millisecond)
	RecordAssessment("synthetic", 30*time.Millisecond)

	after := testutil.ToFloat64(Assessments.WithLabelValues("synthetic"))
	if after-before != 2 {
		t.Errorf("expected 2 new synthetic assessments, got %v", after-before)
	}
}

func TestRecordFallback(t *testing.T) {
	before := testutil.ToFloat64(AssessmentFallbacks.WithLabelValues("remote_error"))

	RecordFallback("remote_error")

	after := testutil.ToFloat64(AssessmentFallbacks.WithLabelValues("remote_error"))
	if after-before != 1 {
		t.Errorf("expected 1 new fallback, got %v", after-before)
	}
}
