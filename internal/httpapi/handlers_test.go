package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lakotafox/top2d/internal/hub"
	"github.com/lakotafox/top2d/internal/room"
	"github.com/lakotafox/top2d/internal/sched"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func newTestHub(t *testing.T) *hub.Hub {
	t.Helper()
	sch := sched.New()
	t.Cleanup(sch.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return hub.NewHub(ctx, room.DefaultConfig(), sch, zap.NewNop())
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should not all collide")
}

func TestCreateRoomCode(t *testing.T) {
	router := SetupRoutes(newTestHub(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Regexp(t, codePattern, body.Code)
}

func TestHealthz(t *testing.T) {
	router := SetupRoutes(newTestHub(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWSRequiresRoomParam(t *testing.T) {
	router := SetupRoutes(newTestHub(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
