package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
	usershttp "github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/http"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store/drivers/sqlite"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/blacklist"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	handler http.Handler
	issuer  *jwtx.HS256
	bl      *blacklist.Memory
	store   *sqlite.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	for _, id := range []string{"alice", "bob"} {
		_, err := st.Projections().UpsertFromSync(context.Background(),
			domain.NewProjection(id, id, id+"@example.com", "user", t0, t0, t0))
		require.NoError(t, err)
	}

	issuer, err := jwtx.NewHS256([]byte("users-http-test-secret-0123456789"))
	require.NoError(t, err)
	bl := blacklist.NewMemory()

	h := usershttp.NewRouter(usershttp.Options{
		Verifier:     issuer,
		Blacklist:    bl,
		Profiles:     service.NewProfileService(st),
		Database:     st,
		Logger:       slogx.Discard(),
		Version:      "test",
		BrokerStatus: func() string { return "connected" },
	})

	return &testServer{t: t, handler: h, issuer: issuer, bl: bl, store: st}
}

func (s *testServer) token(userID, role string) string {
	s.t.Helper()
	tok, err := s.issuer.Mint(jwtx.NewAccessClaims(userID, userID, role), time.Minute)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) call(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	e := decode[httpx.APIError](t, rec)
	require.Equal(t, code, e.Code)
}

func TestGetProfile(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	alice := s.token("alice", "user")

	t.Run("own profile", func(t *testing.T) {
		rec := s.call(http.MethodGet, "/v1/users/alice", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		p := decode[usershttp.ProfileResponse](t, rec)
		require.Equal(t, "alice", p.ID)
		require.Equal(t, domain.DefaultAvatarURL, p.AvatarURL)
		require.Equal(t, domain.DefaultTheme, p.Theme)
		require.True(t, p.SyncedFromAuth)
	})

	t.Run("someone else's profile", func(t *testing.T) {
		rec := s.call(http.MethodGet, "/v1/users/bob", alice, nil)
		requireError(t, rec, http.StatusForbidden, httpx.CodeInsufficientPermission)
	})

	t.Run("admin reads anyone", func(t *testing.T) {
		rec := s.call(http.MethodGet, "/v1/users/bob", s.token("root", "admin"), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := s.call(http.MethodGet, "/v1/users/nobody", s.token("root", "admin"), nil)
		requireError(t, rec, http.StatusNotFound, httpx.CodeNotFound)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := s.call(http.MethodGet, "/v1/users/alice", "", nil)
		requireError(t, rec, http.StatusUnauthorized, httpx.CodeTokenInvalid)
	})

	t.Run("revoked token", func(t *testing.T) {
		tok := s.token("alice", "user")
		require.NoError(t, s.bl.Add(context.Background(), tok, time.Minute))

		rec := s.call(http.MethodGet, "/v1/users/alice", tok, nil)
		requireError(t, rec, http.StatusUnauthorized, httpx.CodeTokenRevoked)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	alice := s.token("alice", "user")

	t.Run("own profile", func(t *testing.T) {
		rec := s.call(http.MethodPatch, "/v1/users/alice/profile", alice,
			usershttp.UpdateProfileRequest{Theme: ptr(domain.ThemeDark), Bio: ptr("hello")})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		p := decode[usershttp.ProfileResponse](t, rec)
		require.Equal(t, domain.ThemeDark, p.Theme)
		require.Equal(t, "hello", p.Bio)
		require.Equal(t, domain.DefaultAvatarURL, p.AvatarURL)
		require.NotNil(t, p.ProfileUpdatedAt)
	})

	t.Run("invalid theme", func(t *testing.T) {
		rec := s.call(http.MethodPatch, "/v1/users/alice/profile", alice,
			usershttp.UpdateProfileRequest{Theme: ptr("neon")})
		requireError(t, rec, http.StatusBadRequest, httpx.CodeInvalidRequest)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := s.call(http.MethodPatch, "/v1/users/alice/profile", alice, `{"username":"mallory"}`)
		requireError(t, rec, http.StatusBadRequest, httpx.CodeInvalidRequest)
	})

	t.Run("empty update", func(t *testing.T) {
		rec := s.call(http.MethodPatch, "/v1/users/alice/profile", alice, `{}`)
		requireError(t, rec, http.StatusBadRequest, httpx.CodeInvalidRequest)
	})

	t.Run("someone else's profile", func(t *testing.T) {
		rec := s.call(http.MethodPatch, "/v1/users/bob/profile", alice,
			usershttp.UpdateProfileRequest{Bio: ptr("pwned")})
		requireError(t, rec, http.StatusForbidden, httpx.CodeInsufficientPermission)
	})

	t.Run("moderator cannot edit others", func(t *testing.T) {
		rec := s.call(http.MethodPatch, "/v1/users/bob/profile", s.token("mod", "moderator"),
			usershttp.UpdateProfileRequest{Bio: ptr("hi")})
		requireError(t, rec, http.StatusForbidden, httpx.CodeInsufficientPermission)
	})

	t.Run("admin edits anyone", func(t *testing.T) {
		rec := s.call(http.MethodPatch, "/v1/users/bob/profile", s.token("root", "admin"),
			usershttp.UpdateProfileRequest{AvatarURL: ptr("/avatars/bob.png")})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, "/avatars/bob.png", decode[usershttp.ProfileResponse](t, rec).AvatarURL)
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.call(http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[authsdk.HealthResponse](t, rec).Status)

	rec = s.call(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ready := decode[authsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Blacklist)
	require.Equal(t, "connected", ready.Checks.Broker)

	rec = s.call(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, s.store.Close())
	rec = s.call(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "error", decode[authsdk.HealthResponse](t, rec).Checks.Database)
}

func ptr(s string) *string { return &s }
