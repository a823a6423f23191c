package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReady(t *testing.T) {
	cases := []struct {
		name    string
		checker stubChecker
		code    int
	}{
		{"all dependencies up", stubChecker{}, http.StatusOK},
		{"db down", stubChecker{dbErr: errors.New("db down")}, http.StatusServiceUnavailable},
		{"redis down", stubChecker{redisErr: errors.New("redis down")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := health.Handler{Checker: tc.checker, DBTimeout: 50 * time.Millisecond, RedisTimeout: 50 * time.Millisecond}
			rr := httptest.NewRecorder()
			handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			require.Equal(t, tc.code, rr.Code)

			var status map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
			if tc.checker.dbErr == nil {
				require.Equal(t, "ok", status["db"])
			} else {
				require.Equal(t, tc.checker.dbErr.Error(), status["db"])
			}
		})
	}
}

func TestReadyWithoutChecker(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
