package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/viz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpens struct {
	opened map[string]bool
	calls  []string
	err    error
}

func (f *fakeOpens) MarkOpened(_ context.Context, id string, _ time.Time) (bool, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return false, f.err
	}
	if f.opened[id] {
		return false, nil
	}
	f.opened[id] = true
	return true, nil
}

type fakeStats struct {
	stats *viz.DashboardStats
	err   error
}

func (f fakeStats) Collect(context.Context, time.Time) (*viz.DashboardStats, error) {
	return f.stats, f.err
}

type fakeFeed []models.Reminder

func (f fakeFeed) Recent() []models.Reminder { return f }

func newTestServer(t *testing.T, opens *fakeOpens, stats fakeStats) http.Handler {
	t.Helper()
	srv, err := NewServer(opens, stats, fakeFeed{{EventID: "e1", Title: "Appel Acme"}}, nil, nil)
	require.NoError(t, err)
	return srv.Handler()
}

func sampleStats() *viz.DashboardStats {
	return &viz.DashboardStats{
		TotalContacts: 4,
		Pipeline:      []viz.StageStats{{Stage: models.StageNew, Count: 2, Value: 1500}},
		Campaigns:     nil,
		GeneratedAt:   time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestTrackPixelMarksOpenedOnce(t *testing.T) {
	opens := &fakeOpens{opened: map[string]bool{}}
	h := newTestServer(t, opens, fakeStats{stats: sampleStats()})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track?id=01HTRACK", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
		assert.Equal(t, transparentGIF, rec.Body.Bytes())
	}
	assert.Equal(t, []string{"01HTRACK", "01HTRACK"}, opens.calls)
}

func TestTrackPixelWithoutIDOrOnErrorStillServesImage(t *testing.T) {
	opens := &fakeOpens{opened: map[string]bool{}, err: errors.New("db down")}
	h := newTestServer(t, opens, fakeStats{stats: sampleStats()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, opens.calls)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track?id=x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeOpens{opened: map[string]bool{}}, fakeStats{stats: sampleStats()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got viz.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.TotalContacts)
}

func TestStatsEndpointError(t *testing.T) {
	h := newTestServer(t, &fakeOpens{opened: map[string]bool{}}, fakeStats{err: errors.New("boom")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRemindersEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeOpens{opened: map[string]bool{}}, fakeStats{stats: sampleStats()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reminders", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Appel Acme")
}

func TestDashboardRenders(t *testing.T) {
	h := newTestServer(t, &fakeOpens{opened: map[string]bool{}}, fakeStats{stats: sampleStats()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Appel Acme")
	assert.Contains(t, rec.Body.String(), "1500€")
}

func TestPipelineGraphDisabled(t *testing.T) {
	h := newTestServer(t, &fakeOpens{opened: map[string]bool{}}, fakeStats{stats: sampleStats()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipeline.svg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeOpens{opened: map[string]bool{}}, fakeStats{stats: sampleStats()})
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/track?id=m1", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "leadgen_tracking_pixel_hits_total")
}
