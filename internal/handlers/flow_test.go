package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/repository"
	"pathfinder/internal/service"
	"pathfinder/internal/types"
	"pathfinder/pkg/config"
)

const (
	aliceHex = "0x0000000000000000000000000000000000000001"
	bobHex   = "0x0000000000000000000000000000000000000002"
)

// fakeRepo фиксированное состояние trust-графа
type fakeRepo struct {
	safes map[types.Address]*types.Safe
}

var _ repository.SafeRepository = (*fakeRepo)(nil)

func (f *fakeRepo) LoadAll(ctx context.Context) (map[types.Address]*types.Safe, error) {
	return f.safes, nil
}

func (f *fakeRepo) CountSafes(ctx context.Context) (int, error) {
	return len(f.safes), nil
}

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

func newTestMux(t *testing.T, pinger Pinger) *http.ServeMux {
	t.Helper()

	alice := types.MustParseAddress(aliceHex)
	bob := types.MustParseAddress(bobHex)

	var tokenA, tokenB types.Address
	tokenA[19] = 0xaa
	tokenB[19] = 0xbb

	aliceSafe := types.NewSafe(tokenA)
	aliceSafe.Balances[tokenA] = types.NewU256(1000)
	aliceSafe.LimitPercentage[bob] = 50

	bobSafe := types.NewSafe(tokenB)
	bobSafe.Balances[tokenB] = types.NewU256(200)

	repo := &fakeRepo{safes: map[types.Address]*types.Safe{alice: aliceSafe, bob: bobSafe}}
	svc := service.New(repo, nil, nil, config.FlowConfig{})

	mux := http.NewServeMux()
	NewFlowHandler(svc, pinger).Register(mux)
	return mux
}

func TestCompute(t *testing.T) {
	mux := newTestMux(t, nil)

	body := `{"source":"` + aliceHex + `","sink":"` + bobHex + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/flow/compute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ComputeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "100", resp.MaxFlow)
	require.Len(t, resp.Transfers, 1)
	assert.Equal(t, aliceHex, resp.Transfers[0].From)
	assert.Equal(t, bobHex, resp.Transfers[0].To)
	assert.Equal(t, "100", resp.Transfers[0].Value)
}

func TestCompute_BadAddress(t *testing.T) {
	mux := newTestMux(t, nil)

	body := `{"source":"0x123","sink":"` + bobHex + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/flow/compute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_ADDRESS", resp.Error.Code)
	assert.Equal(t, "source", resp.Error.Field)
}

func TestCompute_MalformedBody(t *testing.T) {
	mux := newTestMux(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/flow/compute", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		mux := newTestMux(t, &fakePinger{})
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("database_down", func(t *testing.T) {
		mux := newTestMux(t, &fakePinger{err: errors.New("no route")})
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
