package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photojournal/internal/config"
	"photojournal/internal/database"
	"photojournal/internal/imagestore"
	"photojournal/internal/middleware"
	"photojournal/internal/modules/auth"
	"photojournal/internal/modules/journal"
	jwtsvc "photojournal/internal/pkg/jwt"
	"photojournal/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Suite struct {
	router *gin.Engine
	images *imagestore.Store
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
	Message string                 `json:"message,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupSuite(t *testing.T, visibility config.Visibility) *Suite {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := database.Connect(dbPath)
	require.NoError(t, err, "failed to open test database")

	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	require.NoError(t, userRepo.Migrate())
	require.NoError(t, entryRepo.Migrate())

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	images := imagestore.New(filepath.Join(t.TempDir(), "uploads"), 0)

	authService := auth.NewService(userRepo, jwtService)
	authHandler := auth.NewHandler(authService, auth.SessionCookie{Name: "session", MaxAge: 3600}, t.TempDir())

	journalService := journal.NewService(entryRepo, images, visibility, nil)
	journalHandler := journal.NewHandler(journalService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	root := r.Group("/")
	authHandler.RegisterRoutes(root)

	protected := root.Group("/")
	protected.Use(middleware.JWTAuth(jwtService, "session"))
	journalHandler.RegisterRoutes(protected)

	return &Suite{router: r, images: images}
}

func (s *Suite) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

func (s *Suite) postJSON(t *testing.T, path, token string, payload any) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return s.do(t, http.MethodPost, path, token, bytes.NewBuffer(data), "application/json")
}

func entryForm(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (s *Suite) register(t *testing.T, username, password string) (*httptest.ResponseRecorder, TestResponse) {
	return s.postJSON(t, "/register", "", map[string]string{"username": username, "password": password})
}

func (s *Suite) login(t *testing.T, username, password string) string {
	t.Helper()
	w, resp := s.postJSON(t, "/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := resp.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *Suite) listEntries(t *testing.T, token string) []map[string]interface{} {
	t.Helper()
	w, resp := s.do(t, http.MethodGet, "/", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	raw, _ := resp.Data["entries"].([]interface{})
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		out = append(out, item.(map[string]interface{}))
	}
	return out
}

func (s *Suite) createEntry(t *testing.T, token, title, body, filename string) map[string]interface{} {
	t.Helper()
	form, ct := entryForm(t, map[string]string{"title": title, "body": body}, filename, []byte("img-bytes"))
	w, resp := s.do(t, http.MethodPost, "/add_entry", token, form, ct)
	require.Equal(t, http.StatusCreated, w.Code, "create failed: %+v", resp)
	entry, _ := resp.Data["entry"].(map[string]interface{})
	require.NotNil(t, entry)
	return entry
}

func TestRegistrationAndLoginScenario(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	w, _ := s.register(t, "alice", "pw1")
	assert.Equal(t, http.StatusCreated, w.Code)

	// Same username again, different password: rejected by the store's
	// uniqueness constraint.
	w, resp := s.register(t, "alice", "pw2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USERNAME_TAKEN", resp.Error.Code)

	// Original credentials still log in.
	token := s.login(t, "alice", "pw1")
	assert.NotEmpty(t, token)

	w, resp = s.postJSON(t, "/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}

func TestUsernamesAreCaseSensitive(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	w, _ := s.register(t, "alice", "pw1")
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.register(t, "Alice", "pw2")
	assert.Equal(t, http.StatusCreated, w.Code, "differently-cased username is a distinct account")
}

func TestAnonymousRequestsAreRejected(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodPost, "/add_entry"},
		{http.MethodPost, "/edit_entry/1"},
		{http.MethodPost, "/delete_entry/1"},
	} {
		w, resp := s.do(t, route.method, route.path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
		assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	}
}

func TestCreateListAndImageLifecycle(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	token := s.login(t, "alice", "pw1")

	entry := s.createEntry(t, token, "Beach day", "sunny and warm", "beach.png")
	imagePath, _ := entry["image_path"].(string)
	assert.True(t, strings.HasPrefix(imagePath, "uploads/"))
	assert.True(t, s.images.Exists(imagePath), "stored image must exist while the entry does")

	entries := s.listEntries(t, token)
	require.Len(t, entries, 1)
	assert.Equal(t, "Beach day", entries[0]["title"])
	assert.Equal(t, "sunny and warm", entries[0]["body"])
	assert.Equal(t, imagePath, entries[0]["image_path"])
}

func TestListOrdering_NewestFirst(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	token := s.login(t, "alice", "pw1")

	for i := 1; i <= 3; i++ {
		s.createEntry(t, token, fmt.Sprintf("entry %d", i), "body", "pic.jpg")
	}

	entries := s.listEntries(t, token)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 3", entries[0]["title"])
	assert.Equal(t, "entry 1", entries[2]["title"])
}

func TestCreateRejectsBadUploads(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	token := s.login(t, "alice", "pw1")

	// Disallowed extension.
	form, ct := entryForm(t, map[string]string{"title": "t", "body": "b"}, "virus.exe", []byte("x"))
	w, resp := s.do(t, http.MethodPost, "/add_entry", token, form, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_IMAGE_TYPE", resp.Error.Code)

	// Missing file part entirely.
	form, ct = entryForm(t, map[string]string{"title": "t", "body": "b"}, "", nil)
	w, resp = s.do(t, http.MethodPost, "/add_entry", token, form, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "IMAGE_REQUIRED", resp.Error.Code)

	// Nothing was persisted by either rejection.
	assert.Empty(t, s.listEntries(t, token))
}

func TestEditFieldsOnlyKeepsImage(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	token := s.login(t, "alice", "pw1")

	entry := s.createEntry(t, token, "Original", "body", "pic.png")
	id := int64(entry["id"].(float64))
	originalImage := entry["image_path"].(string)

	form, ct := entryForm(t, map[string]string{"title": "Renamed", "body": "body"}, "", nil)
	w, resp := s.do(t, http.MethodPost, fmt.Sprintf("/edit_entry/%d", id), token, form, ct)
	require.Equal(t, http.StatusOK, w.Code)

	updated := resp.Data["entry"].(map[string]interface{})
	assert.Equal(t, "Renamed", updated["title"])
	assert.Equal(t, originalImage, updated["image_path"])
	assert.True(t, s.images.Exists(originalImage))
}

func TestEditWithReplacementImage(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	token := s.login(t, "alice", "pw1")

	entry := s.createEntry(t, token, "Original", "body", "first.png")
	id := int64(entry["id"].(float64))
	firstImage := entry["image_path"].(string)

	form, ct := entryForm(t, map[string]string{"title": "Original", "body": "body"}, "second.jpg", []byte("new"))
	w, resp := s.do(t, http.MethodPost, fmt.Sprintf("/edit_entry/%d", id), token, form, ct)
	require.Equal(t, http.StatusOK, w.Code)

	updated := resp.Data["entry"].(map[string]interface{})
	secondImage := updated["image_path"].(string)
	assert.NotEqual(t, firstImage, secondImage)
	assert.True(t, s.images.Exists(secondImage))
	assert.False(t, s.images.Exists(firstImage), "superseded image is deleted after the row commit")
}

func TestEditWithBadReplacementDiscardsFieldChanges(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	token := s.login(t, "alice", "pw1")

	entry := s.createEntry(t, token, "Original", "body", "pic.png")
	id := int64(entry["id"].(float64))

	form, ct := entryForm(t, map[string]string{"title": "Should not stick", "body": "body"}, "nope.exe", []byte("x"))
	w, resp := s.do(t, http.MethodPost, fmt.Sprintf("/edit_entry/%d", id), token, form, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_IMAGE_TYPE", resp.Error.Code)

	entries := s.listEntries(t, token)
	require.Len(t, entries, 1)
	assert.Equal(t, "Original", entries[0]["title"], "all-or-nothing: title change discarded with the bad file")
}

func TestNonOwnerCannotEditOrDelete(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	s.register(t, "bob", "pw2")
	aliceToken := s.login(t, "alice", "pw1")
	bobToken := s.login(t, "bob", "pw2")

	entry := s.createEntry(t, aliceToken, "Private", "body", "pic.png")
	id := int64(entry["id"].(float64))

	// Bob gets the same answer whether the entry is missing or just not
	// his.
	form, ct := entryForm(t, map[string]string{"title": "Hijacked", "body": "body"}, "", nil)
	w, resp := s.do(t, http.MethodPost, fmt.Sprintf("/edit_entry/%d", id), bobToken, form, ct)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	form, ct = entryForm(t, map[string]string{"title": "Hijacked", "body": "body"}, "", nil)
	w, resp = s.do(t, http.MethodPost, fmt.Sprintf("/edit_entry/%d", id+999), bobToken, form, ct)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	w, _ = s.do(t, http.MethodPost, fmt.Sprintf("/delete_entry/%d", id), bobToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Alice's entry is untouched.
	entries := s.listEntries(t, aliceToken)
	require.Len(t, entries, 1)
	assert.Equal(t, "Private", entries[0]["title"])
}

func TestDeleteEntryAndIdempotence(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	token := s.login(t, "alice", "pw1")

	entry := s.createEntry(t, token, "Doomed", "body", "pic.gif")
	id := int64(entry["id"].(float64))
	imagePath := entry["image_path"].(string)

	w, _ := s.do(t, http.MethodPost, fmt.Sprintf("/delete_entry/%d", id), token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.listEntries(t, token))
	assert.False(t, s.images.Exists(imagePath))

	// Second delete of the same id: not found, nothing else happens.
	w, resp := s.do(t, http.MethodPost, fmt.Sprintf("/delete_entry/%d", id), token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestPrivateVisibilityScopesListing(t *testing.T) {
	s := setupSuite(t, config.VisibilityPrivate)

	s.register(t, "alice", "pw1")
	s.register(t, "bob", "pw2")
	aliceToken := s.login(t, "alice", "pw1")
	bobToken := s.login(t, "bob", "pw2")

	s.createEntry(t, aliceToken, "Alice's", "body", "a.png")
	s.createEntry(t, bobToken, "Bob's", "body", "b.png")

	aliceEntries := s.listEntries(t, aliceToken)
	require.Len(t, aliceEntries, 1)
	assert.Equal(t, "Alice's", aliceEntries[0]["title"])
}

func TestPublicVisibilityListsEveryoneWithAuthors(t *testing.T) {
	s := setupSuite(t, config.VisibilityPublic)

	s.register(t, "alice", "pw1")
	s.register(t, "bob", "pw2")
	aliceToken := s.login(t, "alice", "pw1")
	bobToken := s.login(t, "bob", "pw2")

	s.createEntry(t, aliceToken, "Alice's", "body", "a.png")
	s.createEntry(t, bobToken, "Bob's", "body", "b.png")

	entries := s.listEntries(t, aliceToken)
	require.Len(t, entries, 2)
	assert.Equal(t, "Bob's", entries[0]["title"])
	assert.Equal(t, "bob", entries[0]["author"])
	assert.Equal(t, "alice", entries[1]["author"])
}

func TestRatingFieldRoundTrips(t *testing.T) {
	s := setupSuite(t, config.VisibilityPublic)

	s.register(t, "critic", "pw1")
	token := s.login(t, "critic", "pw1")

	form, ct := entryForm(t, map[string]string{"title": "Dune", "body": "great", "rating": "5"}, "poster.jpg", []byte("img"))
	w, resp := s.do(t, http.MethodPost, "/add_entry", token, form, ct)
	require.Equal(t, http.StatusCreated, w.Code)

	entry := resp.Data["entry"].(map[string]interface{})
	assert.Equal(t, float64(5), entry["rating"])
}
