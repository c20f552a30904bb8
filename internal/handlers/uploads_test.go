package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-sync/internal/models"
)

func setupUploadRouter(t *testing.T, maxBytes int64) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	handler := NewUploadHandler(dir, "http://localhost:8083", maxBytes)

	r := gin.New()
	r.POST("/uploads", handler.Upload)
	return r, dir
}

func multipartImage(t *testing.T, field, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func encodedPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestUploadStoresOriginalAndThumbnail(t *testing.T) {
	router, dir := setupUploadRouter(t, 1<<20)

	body, contentType := multipartImage(t, "file", "shot.png", encodedPNG(t, 800, 600))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var ref models.AttachmentRef
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ref))
	assert.True(t, strings.HasPrefix(ref.URL, "http://localhost:8083/uploads/"))
	assert.Contains(t, ref.ThumbnailURL, "_thumb.jpg")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Thumbnail is bounded to the preview width.
	thumbPath := filepath.Join(dir, filepath.Base(ref.ThumbnailURL))
	f, err := os.Open(thumbPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
}

func TestUploadSmallImageKeepsOriginalSize(t *testing.T) {
	router, dir := setupUploadRouter(t, 1<<20)

	body, contentType := multipartImage(t, "file", "icon.png", encodedPNG(t, 64, 64))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	router, _ := setupUploadRouter(t, 10)

	body, contentType := multipartImage(t, "file", "big.png", encodedPNG(t, 32, 32))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	router, _ := setupUploadRouter(t, 1<<20)

	body, contentType := multipartImage(t, "file", "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadRejectsCorruptImage(t *testing.T) {
	router, _ := setupUploadRouter(t, 1<<20)

	body, contentType := multipartImage(t, "file", "broken.png", []byte("not a png at all"))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadRequiresFileField(t *testing.T) {
	router, _ := setupUploadRouter(t, 1<<20)

	body, contentType := multipartImage(t, "wrong_field", "shot.png", encodedPNG(t, 8, 8))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
