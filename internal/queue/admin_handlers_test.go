package queue_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/queue"
)

func seedDLQEntry(t *testing.T, store queue.Store, kind, key string, attempt int) queue.DLQEntry {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"kind":         kind,
		"key":          key,
		"payload":      []byte("payload"),
		"attempt":      attempt,
		"max_attempts": attempt + 1,
		"available_at": time.Now().UnixNano(),
	})
	require.NoError(t, err)

	entry := queue.DLQEntry{
		Kind:           kind,
		IdempotencyKey: key,
		Payload:        raw,
		Attempts:       attempt,
		CreatedAt:      time.Now(),
	}
	id, err := store.InsertQueueDlq(context.Background(), entry)
	require.NoError(t, err)
	entry.ID = id
	return entry
}

func TestDLQReplay(t *testing.T) {
	client := newTestRedis(t)
	store := newMemoryStore()
	handler := queue.AdminHandler{
		Store:             store,
		Queue:             queue.Enqueuer{R: client, Prefix: "adm", DedupTTL: time.Minute, MaxAttempts: 5},
		PageSize:          10,
		VisibilityTimeout: 60 * time.Second,
	}

	entry := seedDLQEntry(t, store, "notification", "dlq1", 2)

	body := strings.NewReader(`{"ids":["` + entry.ID.String() + `"]}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/queue/dlq/replay", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ReplayDLQ(rr, req)

	res := rr.Result()
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp struct {
		Replayed []string          `json:"replayed"`
		Failed   map[string]string `json:"failed"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	require.Contains(t, resp.Replayed, entry.ID.String())
	require.Empty(t, resp.Failed)

	// The replayed task is back on the ready queue and gone from the DLQ.
	depth, err := client.ZCard(context.Background(), "adm:queue:notification").Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), depth)

	_, err = store.GetQueueDlq(context.Background(), entry.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDLQListFiltersByKind(t *testing.T) {
	client := newTestRedis(t)
	store := newMemoryStore()
	handler := queue.AdminHandler{
		Store:    store,
		Queue:    queue.Enqueuer{R: client, Prefix: "adm"},
		PageSize: 10,
	}

	seedDLQEntry(t, store, "notification", "n1", 3)
	seedDLQEntry(t, store, "geo-warm-distance", "g1", 3)

	req := httptest.NewRequest(http.MethodGet, "/admin/queue/dlq?kind=notification", nil)
	rr := httptest.NewRecorder()
	handler.ListDLQ(rr, req)

	res := rr.Result()
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp struct {
		Data  []map[string]any `json:"data"`
		Total int64            `json:"total"`
		Kind  string           `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	require.EqualValues(t, 1, resp.Total)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "notification", resp.Kind)
	require.Equal(t, "notification", resp.Data[0]["kind"])
}
