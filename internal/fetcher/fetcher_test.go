package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/member-qa/internal/models"
)

// upstream simulates the paginated messages endpoint, optionally answering
// configured offsets with error statuses before serving the real page.
type upstream struct {
	mu       sync.Mutex
	records  []models.Message
	failures map[int][]int // skip -> statuses returned before success
	skips    []int
}

func newUpstream(records []models.Message, failures map[int][]int) (*upstream, *httptest.Server) {
	u := &upstream{records: records, failures: failures}
	if u.failures == nil {
		u.failures = map[int][]int{}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		u.mu.Lock()
		u.skips = append(u.skips, skip)
		if statuses := u.failures[skip]; len(statuses) > 0 {
			status := statuses[0]
			u.failures[skip] = statuses[1:]
			u.mu.Unlock()
			w.WriteHeader(status)
			return
		}
		u.mu.Unlock()

		end := skip + limit
		if skip > len(u.records) {
			skip = len(u.records)
		}
		if end > len(u.records) {
			end = len(u.records)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(u.records[skip:end])
	}))
	return u, srv
}

func (u *upstream) requestedSkips() []int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]int(nil), u.skips...)
}

func testClient(baseURL string) *Client {
	return New(Config{
		BaseURL:        baseURL,
		PageSize:       100,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
	}, zap.NewNop())
}

func makeRecords(n int) []models.Message {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msgs := make([]models.Message, n)
	for i := range msgs {
		msgs[i] = models.Message{
			ID:        fmt.Sprintf("msg-%04d", i),
			UserName:  fmt.Sprintf("Member %d", i%7),
			Text:      fmt.Sprintf("message body %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return msgs
}

func ids(msgs []models.Message) map[string]int {
	counts := make(map[string]int, len(msgs))
	for _, m := range msgs {
		counts[m.ID]++
	}
	return counts
}

func TestFetchAllComplete(t *testing.T) {
	records := makeRecords(250)
	u, srv := newUpstream(records, nil)
	defer srv.Close()

	got, err := testClient(srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, []int{0, 100, 200}, u.requestedSkips())
}

func TestFetchAllRetriesTransientErrors(t *testing.T) {
	// The result must be identical to an error-free run: same count, same
	// ids, no duplicates.
	records := makeRecords(250)
	u, srv := newUpstream(records, map[int][]int{
		0:   {http.StatusForbidden},
		100: {http.StatusNotFound, http.StatusMethodNotAllowed},
		200: {http.StatusInternalServerError},
	})
	defer srv.Close()

	got, err := testClient(srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, len(records))
	for id, count := range ids(got) {
		assert.Equal(t, 1, count, "duplicate id %s", id)
	}
	assert.Equal(t, ids(records), ids(got))

	// Failed offsets were retried on the same cursor, never skipped.
	skips := u.requestedSkips()
	assert.Equal(t, []int{0, 0, 100, 100, 100, 200, 200}, skips)
}

func TestFetchAllStopsOnShortPage(t *testing.T) {
	records := makeRecords(150)
	u, srv := newUpstream(records, nil)
	defer srv.Close()

	got, err := testClient(srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 150)
	// The short page at skip=100 ends the fetch; no further requests.
	assert.Equal(t, []int{0, 100}, u.requestedSkips())
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	records := makeRecords(200)
	u, srv := newUpstream(records, nil)
	defer srv.Close()

	got, err := testClient(srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 200)
	assert.Equal(t, []int{0, 100, 200}, u.requestedSkips())
}

func TestFetchAllIncompleteAfterBudget(t *testing.T) {
	records := makeRecords(250)
	failures := map[int][]int{100: {}}
	for i := 0; i < 10; i++ {
		failures[100] = append(failures[100], http.StatusForbidden)
	}
	_, srv := newUpstream(records, failures)
	defer srv.Close()

	got, err := testClient(srv.URL).FetchAll(context.Background())
	require.Error(t, err)

	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 100, incomplete.Fetched)
	assert.True(t, IsTransient(incomplete.Err))

	// The first page survived for the degraded-mode caller.
	assert.Len(t, got, 100)
}

func TestFetchAllPermanentStatusAbortsImmediately(t *testing.T) {
	records := makeRecords(50)
	u, srv := newUpstream(records, map[int][]int{0: {http.StatusUnauthorized, http.StatusUnauthorized}})
	defer srv.Close()

	_, err := testClient(srv.URL).FetchAll(context.Background())

	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 0, incomplete.Fetched)
	// No retry on a non-transient status.
	assert.Equal(t, []int{0}, u.requestedSkips())
}

func TestFetchAllContextCancelled(t *testing.T) {
	records := makeRecords(50)
	_, srv := newUpstream(records, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchAll(ctx)
	require.Error(t, err)
}

func TestIsTransientStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusForbidden, true},
		{http.StatusNotFound, true},
		{http.StatusMethodNotAllowed, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
		{http.StatusTeapot, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isTransientStatus(tt.code), "status %d", tt.code)
	}
}
