package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/VideoTubeGo/internal/auth"
	"github.com/utafrali/VideoTubeGo/internal/event"
	"github.com/utafrali/VideoTubeGo/internal/service"
	"github.com/utafrali/VideoTubeGo/internal/storage/memory"
	"github.com/utafrali/VideoTubeGo/pkg/health"
	"github.com/utafrali/VideoTubeGo/pkg/logger"
	"github.com/utafrali/VideoTubeGo/pkg/middleware"
)

type testEnv struct {
	router     http.Handler
	store      *fakeStore
	media      *memory.Storage
	jwtManager *auth.JWTManager
	uploadDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	media := memory.New("https://media.test")
	jwtManager := auth.NewJWTManager(auth.Config{
		AccessSecret:  "handler-test-access-secret-0123456789",
		RefreshSecret: "handler-test-refresh-secret-0123456789",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 240 * time.Hour,
		Issuer:        "videotube",
	})
	log := logger.Discard()
	publisher := event.NoopPublisher{}

	services := Services{
		Sessions: service.NewSessionService(store, media, jwtManager, publisher, log,
			service.WithBcryptCost(bcrypt.MinCost)),
		Accounts: service.NewAccountService(store, store, media, publisher, log),
		Channels: service.NewChannelService(store, store, store, log),
	}

	uploadDir := t.TempDir()
	router := NewRouter(services, jwtManager, health.NewHandler(), log, RouterConfig{
		Cookies: CookieConfig{
			AccessMaxAge:  jwtManager.AccessExpiry(),
			RefreshMaxAge: jwtManager.RefreshExpiry(),
		},
		Uploads: UploadConfig{Dir: uploadDir, MaxBytes: 1 << 20},
		CORS:    middleware.DefaultCORSConfig(),
	})

	return &testEnv{router: router, store: store, media: media, jwtManager: jwtManager, uploadDir: uploadDir}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors the response envelope with data left raw.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	Success    bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, dst))
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a multipart request. files maps field names to
// file names; each file gets a few bytes of content.
func multipartRequest(t *testing.T, method, target string, fields, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = io.Copy(fw, strings.NewReader("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// registerUser registers a user through the API and returns its id.
func (e *testEnv) registerUser(t *testing.T, username, email, password string) string {
	t.Helper()
	rec := e.do(multipartRequest(t, http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "Test " + username, "email": email, "username": username, "password": password},
		map[string]string{"avatar": "avatar.png"},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user struct {
		ID string `json:"_id"`
	}
	decodeData(t, rec, &user)
	return user.ID
}

// login logs in through the API and returns the access and refresh tokens.
func (e *testEnv) login(t *testing.T, username, password string) (string, string) {
	t.Helper()
	rec := e.do(jsonRequest(http.MethodPost, "/api/v1/users/auth/login",
		map[string]string{"username": username, "password": password}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	decodeData(t, rec, &resp)
	return resp.AccessToken, resp.RefreshToken
}

func httptestRequestNoBody(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
