package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/session"
)

// ---- helpers ----

var testSession = &session.Session{
	ID:          "sess-001",
	UserID:      "usr-001",
	Email:       "ada@example.com",
	AccessToken: "token-001",
	ExpiresAt:   time.Now().Add(time.Hour),
}

// fakeSession stands in for the session middleware. A nil session leaves the request anonymous.
func fakeSession(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess != nil {
			c.Set("userId", sess.UserID)
			c.Set("email", sess.Email)
			c.Set("session", sess)
		}
		c.Next()
	}
}

func newTestEngine(sess *session.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeSession(sess))
	return r
}

func doRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// doUpload posts one part per file name under field.
func doUpload(t *testing.T, router *gin.Engine, url, field string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type responseBody struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Notice  *struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"notice"`
	Notices []struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"notices"`
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) responseBody {
	t.Helper()
	var body responseBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var (
	errUpstream    = &backend.Error{Status: http.StatusInternalServerError, Message: "boom"}
	errRateLimited = &backend.Error{Status: http.StatusTooManyRequests, Message: "slow down"}
	errRejected    = &backend.Error{Status: http.StatusBadRequest, Code: "invalid_grant", Message: "Invalid login credentials"}
)

func httptestRecorder(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
