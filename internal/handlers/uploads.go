package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-sync/internal/models"
)

// thumbnailWidth bounds the stored preview size.
const thumbnailWidth = 320

// imageExtensions is the server-side allow-list, matched after the
// client-side check so a misbehaving client still cannot store junk.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// UploadHandler stores image attachments on local disk and returns their
// durable references.
type UploadHandler struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewUploadHandler builds an UploadHandler rooted at dir.
func NewUploadHandler(dir, baseURL string, maxBytes int64) *UploadHandler {
	return &UploadHandler{dir: dir, baseURL: baseURL, maxBytes: maxBytes}
}

// Upload accepts a multipart image, writes the original plus a bounded
// thumbnail, and returns the attachment reference.
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	if fileHeader.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds size limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !imageExtensions[ext] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported file type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "file is not a decodable image"})
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	name := uuid.NewString()
	fullName := name + ext
	thumbName := name + "_thumb.jpg"

	if err := imaging.Save(img, filepath.Join(h.dir, fullName)); err != nil {
		log.Printf("save upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	thumb := img
	if img.Bounds().Dx() > thumbnailWidth {
		thumb = imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(thumb, filepath.Join(h.dir, thumbName)); err != nil {
		log.Printf("save thumbnail failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	c.JSON(http.StatusCreated, models.AttachmentRef{
		URL:          fmt.Sprintf("%s/uploads/%s", h.baseURL, fullName),
		ThumbnailURL: fmt.Sprintf("%s/uploads/%s", h.baseURL, thumbName),
		ContentType:  contentType,
		Size:         fileHeader.Size,
	})
}
