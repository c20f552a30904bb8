package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"

	"chat-sync/internal/api"
	"chat-sync/internal/models"
)

var (
	ErrAttachmentTooLarge = errors.New("attachment exceeds size limit")
	ErrUnsupportedType    = errors.New("unsupported attachment type")
	ErrCorruptImage       = errors.New("attachment is not a decodable image")
)

// DefaultMaxBytes is the client-side attachment size ceiling.
const DefaultMaxBytes = 5 << 20

// allowedTypes maps sniffed content types to canonical file extensions.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
}

// Uploader validates image payloads client-side and exchanges them for a
// durable attachment reference. Pasted and file-picked images take the same
// path; validation happens before any network call.
type Uploader struct {
	client   api.Client
	maxBytes int64
}

// NewUploader builds an Uploader. maxBytes <= 0 selects DefaultMaxBytes.
func NewUploader(client api.Client, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{client: client, maxBytes: maxBytes}
}

// Upload validates the payload and posts it, returning the server reference.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte) (models.AttachmentRef, error) {
	if int64(len(data)) > u.maxBytes {
		return models.AttachmentRef{}, fmt.Errorf("%w: %d bytes (limit %d)", ErrAttachmentTooLarge, len(data), u.maxBytes)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return models.AttachmentRef{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	// DetectContentType reads at most 512 bytes; a full decode catches
	// truncated payloads.
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return models.AttachmentRef{}, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	if filename == "" {
		filename = "pasted" + ext
	}
	return u.client.UploadImage(ctx, filename, contentType, data)
}
