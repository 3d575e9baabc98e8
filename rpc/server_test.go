package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"certledger/core"
	"certledger/core/events"
	"certledger/core/settlement"
	"certledger/core/state"
	"certledger/storage"
)

const (
	adminCaller = "0000000000000001000000000000000200000000000000030000000000000004"
	userCaller  = "0000000000000005000000000000000600000000000000070000000000000008"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	recorder := events.NewRecorder()
	engine := core.NewEngine(
		state.NewManager(storage.NewMemDB()),
		recorder,
		settlement.NewQueue(),
		core.Params{AdminKey: [4]uint64{1, 2, 3, 4}},
	)
	server := NewServer(engine, recorder, nil)
	return server, server.Router(nil)
}

func submit(t *testing.T, handler http.Handler, caller string, nonce, opcode uint64, params ...uint64) (*httptest.ResponseRecorder, submitResponse) {
	t.Helper()
	if params == nil {
		params = []uint64{}
	}
	body, err := json.Marshal(submitRequest{
		Caller: caller,
		Nonce:  nonce,
		Opcode: opcode,
		Params: params,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/commands", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp submitResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthz(t *testing.T) {
	_, handler := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestSubmitInstall(t *testing.T) {
	_, handler := newTestServer(t)

	rec, resp := submit(t, handler, userCaller, 0, 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint32(0), resp.Code)
	require.NotZero(t, resp.TxID)

	// Rejections still answer 200; the outcome lives in the receipt.
	rec, resp = submit(t, handler, userCaller, 0, 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint32(2), resp.Code)
	require.Equal(t, "PlayerAlreadyExist", resp.Tag)
}

func TestSubmitRejectsBadCaller(t *testing.T) {
	_, handler := newTestServer(t)
	rec, _ := submit(t, handler, "zz", 0, 1)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRejectsBadBody(t *testing.T) {
	_, handler := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/commands", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStateEndpoint(t *testing.T) {
	_, handler := newTestServer(t)
	submit(t, handler, userCaller, 0, 1)

	req := httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot core.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Equal(t, uint64(1), snapshot.TotalPlayers)
}

func TestAccountEndpoint(t *testing.T) {
	_, handler := newTestServer(t)
	submit(t, handler, adminCaller, 0, 1)
	submit(t, handler, userCaller, 0, 1)

	user := core.IdentityFromKey([4]uint64{5, 6, 7, 8})
	_, resp := submit(t, handler, adminCaller, 0, 3, user[0], user[1], 9_000)
	require.Equal(t, uint32(0), resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/account/"+user.String(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var player core.PlayerState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &player))
	require.Equal(t, uint64(9_000), player.Account.IdleFunds)
	require.Equal(t, user.String(), player.Account.Identity)
}

func TestAccountNotFound(t *testing.T) {
	_, handler := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/account/000102030405060708090a0b0c0d0e0f", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/account/nothex", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCertificateEndpoint(t *testing.T) {
	_, handler := newTestServer(t)
	submit(t, handler, adminCaller, 0, 1)
	submit(t, handler, userCaller, 0, 1)
	user := core.IdentityFromKey([4]uint64{5, 6, 7, 8})
	submit(t, handler, adminCaller, 0, 3, user[0], user[1], 50_000)
	submit(t, handler, adminCaller, 1, 6, 100, 1_200, 100, 1)
	_, resp := submit(t, handler, userCaller, 0, 10, 1, 30_000)
	require.Equal(t, uint32(0), resp.Code)
	require.Len(t, resp.Events, 1)
	require.Equal(t, "certificate.purchased", resp.Events[0].Type)
	// The binary form of the same batch: u32 tag 8, u32 field count 9,
	// then the nine u64 fields.
	require.Len(t, resp.Wire, 2*(8+9*8))
	require.Equal(t, "0000000800000009", resp.Wire[:16])

	req := httptest.NewRequest(http.MethodGet, "/v1/certificate/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view core.CertificateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, uint64(30_000), view.Principal)
	require.Equal(t, "active", view.Status)

	req = httptest.NewRequest(http.MethodGet, "/v1/certificate/99", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductEndpoint(t *testing.T) {
	_, handler := newTestServer(t)
	submit(t, handler, adminCaller, 0, 1)
	submit(t, handler, adminCaller, 0, 6, 100, 1_200, 100, 1)

	req := httptest.NewRequest(http.MethodGet, "/v1/product/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Product 0 is the always-available recharge product.
	req = httptest.NewRequest(http.MethodGet, "/v1/product/0", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/product/42", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettlementFlushEndpoint(t *testing.T) {
	_, handler := newTestServer(t)
	submit(t, handler, adminCaller, 0, 1)
	submit(t, handler, userCaller, 0, 1)
	user := core.IdentityFromKey([4]uint64{5, 6, 7, 8})
	submit(t, handler, adminCaller, 0, 3, user[0], user[1], 10_000)

	var addr [20]byte
	addr[19] = 0x42
	limbs := settlement.AddressLimbs(addr)
	_, resp := submit(t, handler, userCaller, 0, 2, 4_000, limbs[0], limbs[1], limbs[2])
	require.Equal(t, uint32(0), resp.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/settlement/flush", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var flushed flushResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flushed))
	require.Equal(t, 1, flushed.Intents)
	// u32 token index, u64 amount, 20-byte external address.
	require.Equal(t,
		"00000000"+"0000000000000fa0"+"0000000000000000000000000000000000000042",
		flushed.Payload)

	// Draining is destructive: a second flush finds nothing.
	req = httptest.NewRequest(http.MethodPost, "/v1/settlement/flush", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	// Reset so a field omitted from the second response does not retain
	// the value decoded from the first.
	flushed = flushResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flushed))
	require.Zero(t, flushed.Intents)
	require.Empty(t, flushed.Payload)
}

func TestRateLimiter(t *testing.T) {
	server, _ := newTestServer(t)
	limiter := NewRateLimiter(60, 2, nil)
	handler := server.Router(limiter)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, fmt.Sprintf("request %d", i))
	}

	// Burst exhausted.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
