package filestore

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service, _, _ := newTestService()
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), service)
	return router, service
}

func multipartBody(t *testing.T, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, router *gin.Engine, name string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/v1/file/"+name, body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestUploadEndpointCreatesRecord(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doUpload(t, router, "demo.pdf", []byte("%PDF-1.4"), map[string]string{
		"destination": "PDFs",
		"tags":        "test,pdf,sample",
		"description": "demo document",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp fileDetailsVerbose
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "demo.pdf", resp.FileName)
	require.Equal(t, "PDFs", resp.Destination)
	require.Equal(t, int64(len("%PDF-1.4")), resp.FileSize)
	require.Equal(t, 1, resp.Version)
	require.Equal(t, "PDFs/demo.pdf", resp.FilePath)
	require.ElementsMatch(t, []string{"test", "pdf", "sample"}, resp.Tags)
}

func TestUploadEndpointRequiresFileField(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/file/demo.pdf", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadEndpointRejectsBadName(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doUpload(t, router, "..", []byte("x"), nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListEndpointDefaultAndVerboseProjections(t *testing.T) {
	router, _ := newTestRouter(t)

	require.Equal(t, http.StatusCreated, doUpload(t, router, "a.txt", []byte("aa"), nil).Code)
	require.Equal(t, http.StatusCreated, doUpload(t, router, "b.txt", []byte("b"), map[string]string{"destination": "docs"}).Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/files?order_by_size=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var plain []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plain))
	require.Len(t, plain, 2)
	require.Equal(t, "b.txt", plain[0]["file_name"])
	require.NotContains(t, plain[0], "version")

	req = httptest.NewRequest(http.MethodGet, "/v1/files?verbose=true", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var verbose []fileDetailsVerbose
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &verbose))
	require.Len(t, verbose, 2)
	for _, item := range verbose {
		require.NotZero(t, item.Version)
		require.NotEmpty(t, item.FilePath)
	}
}

func TestListEndpointFiltersByDestinationAndTag(t *testing.T) {
	router, _ := newTestRouter(t)

	doUpload(t, router, "a.pdf", []byte("a"), map[string]string{"destination": "PDFs", "tags": "sample"})
	doUpload(t, router, "b.txt", []byte("b"), map[string]string{"destination": "docs"})

	req := httptest.NewRequest(http.MethodGet, "/v1/files?destination=PDFs&tag=sample", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp []fileDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "a.pdf", resp[0].FileName)
}

func TestDeleteEndpointSoftThenPermanent(t *testing.T) {
	router, _ := newTestRouter(t)

	doUpload(t, router, "demo.pdf", []byte("x"), map[string]string{"destination": "PDFs"})

	req := httptest.NewRequest(http.MethodDelete, "/v1/file/demo.pdf?destination=PDFs", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// soft-deleted: default listing is empty, include_deleted still sees it
	req = httptest.NewRequest(http.MethodGet, "/v1/files", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	var resp []fileDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Empty(t, resp)

	req = httptest.NewRequest(http.MethodGet, "/v1/files?include_deleted=true&verbose=true", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	var verbose []fileDetailsVerbose
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &verbose))
	require.Len(t, verbose, 1)
	require.NotEmpty(t, verbose[0].DeletedAt)

	req = httptest.NewRequest(http.MethodDelete, "/v1/file/demo.pdf?destination=PDFs&permanent=true", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/file/demo.pdf?destination=PDFs", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDownloadEndpointStreamsBlob(t *testing.T) {
	router, _ := newTestRouter(t)

	doUpload(t, router, "demo.pdf", []byte("%PDF-1.4"), map[string]string{"destination": "PDFs"})

	req := httptest.NewRequest(http.MethodGet, "/v1/file/demo.pdf?destination=PDFs", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, []byte("%PDF-1.4"), rr.Body.Bytes())
	require.Contains(t, rr.Header().Get("Content-Disposition"), "demo.pdf")

	req = httptest.NewRequest(http.MethodGet, "/v1/file/missing.pdf", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
