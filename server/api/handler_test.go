package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	commonauth "inspection_server/server/common/auth"
	"inspection_server/server/domain"
	"inspection_server/server/service"
	"inspection_server/server/storage"
)

// fakeCompanies backs the company routes without a database.
type fakeCompanies struct {
	nextID    int64
	companies map[int64]domain.Company
}

func newFakeCompanies() *fakeCompanies {
	return &fakeCompanies{companies: map[int64]domain.Company{}}
}

func (f *fakeCompanies) Create(ctx context.Context, name string, subName *string) (domain.Company, error) {
	f.nextID++
	c := domain.Company{ID: f.nextID, Name: name, SubName: subName}
	f.companies[c.ID] = c
	return c, nil
}

func (f *fakeCompanies) List(ctx context.Context) ([]domain.Company, error) {
	out := make([]domain.Company, 0, len(f.companies))
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCompanies) Get(ctx context.Context, id int64) (domain.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return domain.Company{}, fmt.Errorf("%w: company %d", domain.ErrNotFound, id)
	}
	return c, nil
}

func newTestRouter(t *testing.T, authCfg AuthConfig, auth *commonauth.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	attachments := service.NewAttachmentService(store, 1<<20, nil)
	inspections := service.NewInspectionService(newFakeCompanies(), nil, nil, nil, nil)

	h := NewHandler(attachments, inspections, nil, nil, nil, auth, authCfg, nil)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t, AuthConfig{}, nil)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAttachmentRoundTrip(t *testing.T) {
	r := newTestRouter(t, AuthConfig{}, nil)

	body, contentType := multipartUpload(t, "minutes.txt", "meeting minutes")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attachments", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var item domain.Attachment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "minutes.txt", item.OriginalName)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/attachments/"+item.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "meeting minutes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="minutes.txt"`)
}

func TestUploadWithoutFileField(t *testing.T) {
	r := newTestRouter(t, AuthConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attachments", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadUnknownAttachment(t *testing.T) {
	r := newTestRouter(t, AuthConfig{}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/attachments/no-such-id", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/attachments/no-such-id/thumbnail", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCompanyRoutes(t *testing.T) {
	r := newTestRouter(t, AuthConfig{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/companies", bytes.NewBufferString(`{"name":"Acme"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var company domain.Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &company))
	assert.Equal(t, "Acme", company.Name)

	// Binding rejects a missing name before the service sees it.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/companies", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var companies []domain.Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &companies))
	assert.Len(t, companies, 1)
}

func TestAuthGatesAPI(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc := commonauth.NewService("test-secret", 60)
	r := newTestRouter(t, AuthConfig{
		Enabled:           true,
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: string(hash),
	}, authSvc)

	// Without a token the API refuses.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Bad credentials fail the login.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"email":"admin@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Good credentials return a token that opens the API.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"email":"admin@example.com","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "admin", login.Role)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskIDMustBeInteger(t *testing.T) {
	r := newTestRouter(t, AuthConfig{}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/not-a-number", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
