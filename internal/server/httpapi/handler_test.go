package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
	"github.com/dmitrijs2005/filekeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	router http.Handler
	tokens *auth.TokenService
	clock  *clock
}

func newEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := &clock{now: time.Now()}
	tokens, err := auth.NewTokenService("access", "refresh", 10*time.Minute, auth.WithClock(c.Now))
	require.NoError(t, err)

	blobs, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	store := memory.New()
	log := logging.NewNop()
	users := services.NewUserService(db, store, tokens, &config.Config{PasswordHashCost: bcrypt.MinCost}, log)
	files := services.NewFileService(db, store, blobs, log)

	h := NewHandler(users, files, tokens, db, log, cfg)
	return &testEnv{router: h.Router(), tokens: tokens, clock: c}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postJSON(t *testing.T, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return e.do(t, http.MethodPost, path, b, map[string]string{"Content-Type": "application/json"})
}

func (e *testEnv) signup(t *testing.T, id, password string) services.TokenPair {
	t.Helper()
	rec := e.postJSON(t, "/signup", map[string]string{"id": id, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair services.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func (e *testEnv) authed(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	h := map[string]string{common.AccessTokenHeaderName: token}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return e.do(t, method, path, body, h)
}

func multipartBody(t *testing.T, filename, contentType string, content []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return buf.Bytes(), mw.FormDataContentType()
}

type fileResp struct {
	File struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Extension string `json:"extension"`
		MimeType  string `json:"mimeType"`
		Size      int64  `json:"size"`
		URL       string `json:"url"`
		UserID    string `json:"userId"`
	} `json:"file"`
	Message string `json:"message"`
}

func (e *testEnv) upload(t *testing.T, token, name, body string) fileResp {
	t.Helper()
	b, ct := multipartBody(t, name, "text/plain", []byte(body))
	rec := e.authed(t, http.MethodPost, "/file/upload", token, b, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out fileResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var m message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m.Message
}
