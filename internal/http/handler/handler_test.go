package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docvault/internal/model"
	"docvault/internal/repository/jsonfile"
	"docvault/internal/service"
	serviceMocks "docvault/internal/service/mocks"
	"docvault/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (r *trackingCloser) Close() error {
	r.closed = true
	return nil
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Code)
	})
}

func TestHealthCheck_PingerFunc(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	mockSvc.On("Ping", mock.Anything).Return(errors.New("corpus unreadable")).Once()

	app := fiber.New()
	app.Get("/health", HealthCheck(PingerFunc(mockSvc.Ping)))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDocumentTags(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documentTags", DocumentTags(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Tags", mock.Anything).Return([]string{"invoice", "2024"}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documentTags", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var tags []string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&tags))
		assert.Equal(t, []string{"invoice", "2024"}, tags)
	})

	t.Run("empty corpus renders empty array", func(t *testing.T) {
		mockSvc.On("Tags", mock.Anything).Return([]string{}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documentTags", nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "[]", string(body))
	})

	t.Run("read failure", func(t *testing.T) {
		mockSvc.On("Tags", mock.Anything).Return(nil, errors.New("corrupt")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documentTags", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "Failed to fetch tags", res.Error)
		assert.NotContains(t, res.Error, "corrupt")
	})
	mockSvc.AssertExpectations(t)
}

func TestSearchDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/api/searchDocuments", SearchDocuments(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/searchDocuments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		want := model.Query{MajorHead: "Professional", SearchTerm: "inv", Tags: []string{"2024"}}
		mockSvc.On("Search", mock.Anything, want).
			Return([]model.Document{{ID: "1", Name: "invoice_march.pdf"}}, nil).Once()

		resp := post(`{"major_head":"Professional","search_term":"inv","tags":["2024"]}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var docs []model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "invoice_march.pdf", docs[0].Name)
	})

	t.Run("no match renders empty array", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, model.Query{MinorHead: "HR"}).Return([]model.Document{}, nil).Once()

		resp := post(`{"minor_head":"HR"}`)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "[]", string(body))
	})

	t.Run("malformed body", func(t *testing.T) {
		for _, body := range []string{"", "{", `{"tags":"invoice"}`, `{"major_head":1}`} {
			resp := post(body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
			assert.Equal(t, "INVALID_QUERY", decodeError(t, resp).Code)
		}
	})

	t.Run("invalid criteria", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, mock.Anything).
			Return(nil, errors.Join(service.ErrInvalidInput, errors.New("search_term (max)"))).Once()

		resp := post(`{"search_term":"x"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, resp).Code)
	})

	t.Run("read failure", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("disk")).Once()

		resp := post(`{}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Search failed", decodeError(t, resp).Error)
	})
	mockSvc.AssertExpectations(t)
}

func multipartUpload(t *testing.T, withFile bool, fields map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if withFile {
		part, err := writer.CreateFormFile("file", "invoice.pdf")
		require.NoError(t, err)
		part.Write([]byte("%PDF-1.4 test"))
	}
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, writer.WriteField(k, v))
		}
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/api/saveDocumentEntry", UploadDocument(mockSvc))

	fields := map[string][]string{
		"major_head":       {"Professional"},
		"minor_head":       {"Finance"},
		"document_date":    {"2024-03-01"},
		"document_remarks": {"march"},
		"tags[]":           {"invoice", "2024"},
	}

	send := func(body *bytes.Buffer, contentType string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/saveDocumentEntry", body)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		expectedDoc := &model.Document{ID: uuid.New().String(), Name: "invoice.pdf"}
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Reader != nil &&
				in.Filename == "invoice.pdf" &&
				in.Size == int64(len("%PDF-1.4 test")) &&
				in.MajorHead == "Professional" &&
				in.MinorHead == "Finance" &&
				in.DocumentDate == "2024-03-01" &&
				in.DocumentRemarks == "march" &&
				assert.ObjectsAreEqual([]string{"invoice", "2024"}, in.Tags)
		})).Return(expectedDoc, nil).Once()

		body, ct := multipartUpload(t, true, fields)
		resp := send(body, ct)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result uploadResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.True(t, result.Success)
		require.NotNil(t, result.Document)
		assert.Equal(t, expectedDoc.ID, result.Document.ID)
	})

	t.Run("no file", func(t *testing.T) {
		resp := send(&bytes.Buffer{}, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "FILE_REQUIRED", res.Code)
		assert.Equal(t, "No file provided", res.Error)
	})

	t.Run("metadata without file", func(t *testing.T) {
		body, ct := multipartUpload(t, false, fields)
		resp := send(body, ct)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	errCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid metadata", errors.Join(service.ErrInvalidInput, errors.New("major_head (oneof)")), http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", service.ErrTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"unsupported type", service.ErrUnsupportedType, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE"},
		{"service error", errors.New("upload to storage: boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			body, ct := multipartUpload(t, true, fields)
			resp := send(body, ct)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			res := decodeError(t, resp)
			assert.Equal(t, tc.wantCode, res.Code)
			assert.NotContains(t, res.Error, "boom")
		})
	}
	mockSvc.AssertExpectations(t)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.DocumentListResult{
			Items: []model.Document{{ID: uuid.New().String(), Name: "test.pdf"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents?limit=10&offset=0", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DocumentListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents?limit=abc", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents?offset=x", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expectedDoc := &model.Document{ID: id, Name: "test.pdf"}
		mockSvc.On("Get", mock.Anything, id).Return(expectedDoc, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id, nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id, nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+strings.Repeat("x", 129), nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id, nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents/:id/download", DownloadDocument(mockSvc))

	id := uuid.New().String()
	doc := &model.Document{ID: id, Name: "invoice.pdf", Type: "application/pdf", Size: 8}

	t.Run("streams attachment", func(t *testing.T) {
		mockSvc.On("Open", mock.Anything, id).Return(doc, io.NopCloser(strings.NewReader("%PDF-1.4")), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/download", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename=invoice.pdf`, resp.Header.Get("Content-Disposition"))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "%PDF-1.4", string(body))
	})

	t.Run("redirects to presigned url", func(t *testing.T) {
		mockSvc.On("DownloadURL", mock.Anything, id).Return("https://objects.example.com/uploads/a.pdf?sig=1", nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/download?redirect=1", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		assert.Equal(t, "https://objects.example.com/uploads/a.pdf?sig=1", resp.Header.Get("Location"))
	})

	t.Run("falls back to streaming without presign support", func(t *testing.T) {
		mockSvc.On("DownloadURL", mock.Anything, id).Return("", storage.ErrPresignUnsupported).Once()
		mockSvc.On("Open", mock.Anything, id).Return(doc, io.NopCloser(strings.NewReader("%PDF-1.4")), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/download?redirect=1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("content missing", func(t *testing.T) {
		mockSvc.On("Open", mock.Anything, id).Return(nil, nil, service.ErrContentMissing).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "CONTENT_MISSING", decodeError(t, resp).Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+strings.Repeat("9", 200)+"/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	mockSvc.AssertExpectations(t)
}

func TestPreviewDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents/:id/preview", PreviewDocument(mockSvc))

	id := uuid.New().String()

	t.Run("inline image", func(t *testing.T) {
		doc := &model.Document{ID: id, Name: "photo.png", Type: "image/png", Size: 4}
		mockSvc.On("Open", mock.Anything, id).Return(doc, io.NopCloser(strings.NewReader("\x89PNG")), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/preview", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.Equal(t, `inline; filename=photo.png`, resp.Header.Get("Content-Disposition"))
	})

	t.Run("unsupported type closes content", func(t *testing.T) {
		doc := &model.Document{ID: id, Name: "data.bin", Type: "application/octet-stream", Size: 3}
		rc := &trackingCloser{Reader: strings.NewReader("abc")}
		mockSvc.On("Open", mock.Anything, id).Return(doc, rc, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/preview", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		assert.Equal(t, "PREVIEW_UNSUPPORTED", decodeError(t, resp).Code)
		assert.True(t, rc.closed)
	})
	mockSvc.AssertExpectations(t)
}

func TestHeads(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/heads", ListHeads(mockSvc))
	app.Get("/api/heads/:major/minor", ListMinorHeads(mockSvc))

	mockSvc.On("Heads").Return(model.Heads).Once()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/heads", nil))
	require.NoError(t, err)
	var heads []model.Head
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&heads))
	assert.Len(t, heads, 3)

	mockSvc.On("MinorHeads", "Company").Return([]string{"Operations", "Legal", "Admin"}, nil).Once()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/heads/Company/minor", nil))
	require.NoError(t, err)
	var minors []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&minors))
	assert.Equal(t, []string{"Operations", "Legal", "Admin"}, minors)

	mockSvc.On("MinorHeads", "Hobby").Return(nil, service.ErrUnknownMajorHead).Once()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/heads/Hobby/minor", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_MAJOR_HEAD", decodeError(t, resp).Code)

	mockSvc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockDocumentService)
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "docvault_test_total", Help: "test"}))

	RegisterRoutes(app, PingerFunc(func(context.Context) error { return nil }), mockSvc, RouteOptions{
		AuthSecret: "secret",
		Gatherer:   reg,
	})

	t.Run("not found route", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Code)
	})

	t.Run("api requires token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documentTags", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
		mockSvc.AssertNotCalled(t, "Tags", mock.Anything)
	})

	t.Run("health stays public", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics exposition", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "docvault_test_total")
	})
}

// An imported corpus keeps timestamp ids and web-style paths; those records
// must be reachable through the document routes.
func TestDocumentRoutes_ImportedCorpus(t *testing.T) {
	dir := t.TempDir()
	corpus := `[
  {
    "id": "1700000000000",
    "name": "a.pdf",
    "path": "/uploads/1700000000000-a.pdf",
    "type": "application/pdf",
    "size": 8,
    "major_head": "Professional",
    "minor_head": "Finance",
    "document_date": "2023-11-14",
    "document_remarks": null,
    "tags": ["invoice"],
    "uploaded_at": "2023-11-14T22:13:20.000Z"
  }
]`
	corpusPath := filepath.Join(dir, "data", "documents.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(corpusPath), 0o755))
	require.NoError(t, os.WriteFile(corpusPath, []byte(corpus), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "public", "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public", "uploads", "1700000000000-a.pdf"), []byte("%PDF-1.4"), 0o644))

	repo, err := jsonfile.NewDocumentFile(corpusPath)
	require.NoError(t, err)
	store, err := storage.NewLocal(filepath.Join(dir, "public"))
	require.NoError(t, err)
	docSvc := service.NewDocumentService(store, repo, service.Options{})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, PingerFunc(docSvc.Ping), docSvc, RouteOptions{})

	t.Run("get", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/1700000000000", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var doc model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(t, "1700000000000", doc.ID)
		assert.Equal(t, "a.pdf", doc.Name)
	})

	t.Run("download", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/1700000000000/download", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, "attachment; filename=a.pdf", resp.Header.Get("Content-Disposition"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(body))
	})

	t.Run("preview", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/1700000000000/preview", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	})

	t.Run("redirect falls back to streaming", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/1700000000000/download?redirect=1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/1700000000001", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("search", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/searchDocuments", strings.NewReader(`{"tags":["invoice"]}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var docs []model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "1700000000000", docs[0].ID)
	})

	t.Run("search over query limits", func(t *testing.T) {
		tags := make([]string, 65)
		for i := range tags {
			tags[i] = "t"
		}
		body, err := json.Marshal(model.Query{Tags: tags})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/searchDocuments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, resp).Code)
	})
}
