package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"memwatch/internal/config"
	"memwatch/internal/handler"
	"memwatch/internal/middleware"
	"memwatch/internal/model"
	"memwatch/internal/service"
	"memwatch/internal/token"
)

type stubUserStore struct {
	byUsername map[string]model.User
}

func (s *stubUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	user, ok := s.byUsername[username]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, user := range s.byUsername {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *stubUserStore) Create(_ context.Context, user model.User) error {
	s.byUsername[user.Username] = user
	return nil
}

type stubSampleStore struct {
	samples []model.MemorySample
	err     error
}

func (s *stubSampleStore) FindRecent(_ context.Context, limit int) ([]model.MemorySample, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > len(s.samples) {
		limit = len(s.samples)
	}
	// Stored oldest first; served most recent first.
	recent := make([]model.MemorySample, 0, limit)
	for i := len(s.samples) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, s.samples[i])
	}
	return recent, nil
}

type testEnv struct {
	server  *httptest.Server
	users   *stubUserStore
	samples *stubSampleStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := &stubUserStore{byUsername: map[string]model.User{}}
	samples := &stubSampleStore{}

	codec, err := token.NewCodec("test-secret", "HS256")
	require.NoError(t, err)
	authService := service.NewAuthService(users, codec, 30*time.Minute)

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	h := New(cfg, middleware.NewAuthMiddleware(authService), Handlers{
		User:   handler.NewUserHandler(authService),
		Memory: handler.NewMemoryHandler(samples),
	})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return &testEnv{server: server, users: users, samples: samples}
}

func (e *testEnv) register(t *testing.T, username string, email string, password string) *http.Response {
	t.Helper()

	body, err := json.Marshal(model.RegisterRequest{Username: username, Email: email, Password: password})
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+"/users/register", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T, username string, password string) *http.Response {
	t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	resp, err := http.Post(e.server.URL+"/users/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) getWithToken(t *testing.T, path string, accessToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) loginToken(t *testing.T, username string, password string) string {
	t.Helper()

	resp := e.login(t, username, password)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var parsed model.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.AccessToken)
	require.Equal(t, "bearer", parsed.TokenType)
	return parsed.AccessToken
}

func decodeError(t *testing.T, resp *http.Response) model.APIError {
	t.Helper()

	var parsed model.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed.Error
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed model.MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.Message)

	health, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	t.Cleanup(func() { _ = health.Body.Close() })
	require.Equal(t, http.StatusOK, health.StatusCode)
}

func TestRegisterFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.register(t, "alice", "alice@x.com", "pw1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var parsed model.MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.Contains(t, parsed.Message, "created successfully")

	t.Run("same username different email", func(t *testing.T) {
		resp := env.register(t, "alice", "other@x.com", "pw1")
		require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
		require.Contains(t, decodeError(t, resp).Message, "username")
	})

	t.Run("same username and email", func(t *testing.T) {
		resp := env.register(t, "alice", "alice@x.com", "pw1")
		require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
		require.Contains(t, decodeError(t, resp).Message, "account")
	})

	t.Run("same email under new username", func(t *testing.T) {
		resp := env.register(t, "bob", "alice@x.com", "pw1")
		require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
		require.Contains(t, decodeError(t, resp).Message, "email")
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		resp, err := http.Post(env.server.URL+"/users/register", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTokenFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@x.com", "pw1")

	t.Run("valid credentials issue a token", func(t *testing.T) {
		accessToken := env.loginToken(t, "alice", "pw1")
		require.NotEmpty(t, accessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := env.login(t, "alice", "wrongpw")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := env.login(t, "null", "null")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@x.com", "pw1")

	t.Run("valid token returns the profile", func(t *testing.T) {
		accessToken := env.loginToken(t, "alice", "pw1")

		resp := env.getWithToken(t, "/users/me", accessToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var profile model.Profile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
		require.Equal(t, model.Profile{Username: "alice", Email: "alice@x.com", Activated: true}, profile)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := env.getWithToken(t, "/users/me", "0")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("no token", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/users/me")
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("deactivated user is blocked here but not at login", func(t *testing.T) {
		user := env.users.byUsername["alice"]
		user.Activated = false
		env.users.byUsername["alice"] = user
		t.Cleanup(func() {
			user.Activated = true
			env.users.byUsername["alice"] = user
		})

		accessToken := env.loginToken(t, "alice", "pw1")

		resp := env.getWithToken(t, "/users/me", accessToken)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, decodeError(t, resp).Message, "inactive")
	})
}

func TestMemoryInfo(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@x.com", "pw1")
	accessToken := env.loginToken(t, "alice", "pw1")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		env.samples.samples = append(env.samples.samples, model.MemorySample{
			SampledAt: base.Add(time.Duration(i) * time.Minute),
			TotalMB:   18432,
			UsedMB:    8000 + float64(i),
			FreeMB:    6000 - float64(i),
		})
	}

	t.Run("limit=1 returns exactly the most recent sample", func(t *testing.T) {
		resp := env.getWithToken(t, "/memory/info?limit=1", accessToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var samples []model.MemorySample
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&samples))
		require.Len(t, samples, 1)

		expected, err := env.samples.FindRecent(context.Background(), 1)
		require.NoError(t, err)
		require.Equal(t, expected, samples)
	})

	t.Run("larger limits return most recent first", func(t *testing.T) {
		resp := env.getWithToken(t, "/memory/info?limit=2", accessToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var samples []model.MemorySample
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&samples))
		require.Len(t, samples, 2)
		require.True(t, samples[0].SampledAt.After(samples[1].SampledAt))
	})

	t.Run("non-numeric limit", func(t *testing.T) {
		resp := env.getWithToken(t, "/memory/info?limit=abc", accessToken)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("store failure is a 400", func(t *testing.T) {
		broken := newTestEnv(t)
		broken.register(t, "carol", "carol@x.com", "pw")
		brokenToken := broken.loginToken(t, "carol", "pw")
		broken.samples.err = context.DeadlineExceeded

		resp := broken.getWithToken(t, "/memory/info?limit=1", brokenToken)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty store is a 400", func(t *testing.T) {
		empty := newTestEnv(t)
		empty.register(t, "dave", "dave@x.com", "pw")
		emptyToken := empty.loginToken(t, "dave", "pw")

		resp := empty.getWithToken(t, "/memory/info?limit=1", emptyToken)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("requires a token", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/memory/info?limit=1")
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
