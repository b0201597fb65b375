package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/propinv/internal/domain"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("room %q: %w", "r1", domain.ErrNotFound), "not_found"},
		{domain.ErrLocked, "locked"},
		{domain.ErrPrecondition, "precondition"},
		{domain.ErrValidation, "validation"},
		{fmt.Errorf("%w: %w", domain.ErrPersistence, errors.New("disk full")), "persistence"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}

func TestObserveMutation(t *testing.T) {
	m := New()

	m.ObserveMutation("lock", nil)
	m.ObserveMutation("lock", domain.ErrPrecondition)
	m.ObserveMutation("lock", domain.ErrPrecondition)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("lock", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("lock", "precondition")))
}

func TestObserveImageCountsDecodeFailures(t *testing.T) {
	m := New()

	m.ObserveImage("photo", 10*time.Millisecond, nil)
	m.ObserveImage("photo", 10*time.Millisecond, fmt.Errorf("%w: bad header", domain.ErrImageDecode))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageDecodeFailures))
}

func TestObserveExport(t *testing.T) {
	m := New()

	m.ObserveExport(3, nil)
	m.ObserveExport(5, errors.New("bucket missing"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExportedPhotos))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveMutation("lock", nil)
		m.ObserveImage("photo", time.Second, nil)
		m.ObserveRequest("GET", "200", time.Second)
		m.ObserveExport(1, nil)
	})
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveMutation("create", nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Mutations.WithLabelValues("create", "ok")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "propinv_http_request_duration_seconds")
}
