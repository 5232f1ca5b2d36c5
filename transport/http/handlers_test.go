package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kakao/partnersso/adapters/prefs"
	"github.com/kakao/partnersso/adapters/recordcodec"
	"github.com/kakao/partnersso/adapters/securestore"
	"github.com/kakao/partnersso/adapters/tokenizer"
	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
	"github.com/kakao/partnersso/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	group = "TEAM.com.kakao.sso"
	seed  = "seed"
)

type stubExchanger struct {
	rejected string
}

func (s stubExchanger) Exchange(_ context.Context, rt string) (*core.TokenPair, error) {
	if rt == s.rejected {
		return nil, fmt.Errorf("invalid_grant: %w", core.ErrTokenRejected)
	}
	return &core.TokenPair{AccessToken: "at-for-" + rt, RefreshToken: "rt-for-" + rt, TokenType: "bearer"}, nil
}

type testServer struct {
	router *gin.Engine
	store  *securestore.MemoryStore
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := securestore.NewMemoryStore()
	provider := service.NewSSOProvider(store, recordcodec.NewJSONCodec(), prefs.NewMemoryPreferences(), nil, core.PhaseProduction, zerolog.Nop())
	require.NoError(t, provider.Prepare(context.Background(), group))

	login := service.NewLoginService(provider, stubExchanger{rejected: "rt-b"}, zerolog.Nop())
	tk := tokenizer.NewJWTTokenizer([]byte("secret"), time.Hour)
	token, err := tk.IssueClientToken("test-client")
	require.NoError(t, err)

	return &testServer{
		router: SetupRouter(provider, login, tk, zerolog.Nop()),
		store:  store,
		token:  token,
	}
}

func (s *testServer) writeRecords(t *testing.T, records ...core.AccountRecord) {
	t.Helper()
	writeRaw(t, s.store, mustEncode(t, records...))
}

func mustEncode(t *testing.T, records ...core.AccountRecord) []byte {
	t.Helper()
	data, err := recordcodec.NewJSONCodec().Encode(core.Snapshot{Records: records})
	require.NoError(t, err)
	return data
}

func writeRaw(t *testing.T, store ports.SecureStore, data []byte) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, service.SeedService, group, service.Obfuscate(seed)))
	require.NoError(t, store.Put(ctx, service.ServiceName(seed, core.PhaseProduction), group, data))
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func rec(id, rt string, lastLogin int64) core.AccountRecord {
	return core.AccountRecord{
		AccountID:     id,
		AccessToken:   "at-" + id,
		RefreshToken:  rt,
		LastLoginTime: time.Unix(lastLogin, 0).UTC(),
		Profile:       core.DisplayProfile{Nickname: "nick-" + id, DisplayID: id + "@kakao.com"},
	}
}

func TestRouter_RequiresClientToken(t *testing.T) {
	s := newTestServer(t)

	for _, header := range []string{"", "Bearer ", "Basic abc", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/sso/available", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestHandlers_NoStore(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/sso/available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["available"])

	w, body = s.do(t, http.MethodGet, "/sso/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["accounts"])

	w, _ = s.do(t, http.MethodPost, "/sso/select", map[string]string{"type": "main"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_Flow(t *testing.T) {
	s := newTestServer(t)
	s.writeRecords(t, rec("a", "rt-a", 100), rec("b", "rt-b", 200))

	w, body := s.do(t, http.MethodGet, "/sso/available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["available"])

	w, body = s.do(t, http.MethodGet, "/sso/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	accounts := body["accounts"].([]any)
	require.Len(t, accounts, 2)
	first := accounts[0].(map[string]any)
	assert.Equal(t, "a", first["account_id"])
	assert.Equal(t, true, first["is_valid"])
	assert.NotContains(t, w.Body.String(), "rt-a")

	w, body = s.do(t, http.MethodPost, "/sso/select", map[string]string{"type": "active"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rt-b", body["refresh_token"])

	w, body = s.do(t, http.MethodPost, "/sso/select", map[string]string{"account_id": "a"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rt-a", body["refresh_token"])

	w, _ = s.do(t, http.MethodPost, "/sso/select", map[string]string{"account_id": "zzz"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/sso/select", map[string]string{"type": "newest"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodPost, "/sso/login", map[string]string{"type": "main"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "at-for-rt-a", body["access_token"])

	// b's token is rejected by the backend, then refused locally
	w, _ = s.do(t, http.MethodPost, "/sso/login", map[string]string{"type": "active"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(t, http.MethodPost, "/sso/login", map[string]string{"type": "active"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = s.do(t, http.MethodGet, "/sso/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := body["accounts"].([]any)[1].(map[string]any)
	assert.Equal(t, false, second["is_valid"])
}

func TestHandlers_Invalid(t *testing.T) {
	s := newTestServer(t)
	s.writeRecords(t, rec("a", "rt-a", 100))

	w, _ := s.do(t, http.MethodPost, "/sso/invalid", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.do(t, http.MethodPost, "/sso/invalid", map[string]string{"refresh_token": "rt-a"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["message"])

	w, body = s.do(t, http.MethodGet, "/sso/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["accounts"].([]any)[0].(map[string]any)["is_valid"])
}

func TestHandlers_UndecodableRecords(t *testing.T) {
	s := newTestServer(t)
	writeRaw(t, s.store, []byte("not json"))

	w, _ := s.do(t, http.MethodGet, "/sso/accounts", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, body := s.do(t, http.MethodGet, "/sso/available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["available"])
}

func TestHandlers_StoreDenied(t *testing.T) {
	s := newTestServer(t)
	s.writeRecords(t, rec("a", "rt-a", 100))
	s.store.Deny(group)

	w, _ := s.do(t, http.MethodGet, "/sso/accounts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
