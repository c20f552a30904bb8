package upload

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-sync/internal/mocks"
	"chat-sync/internal/models"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadSuccess(t *testing.T) {
	client := new(mocks.ClientMock)
	u := NewUploader(client, 0)
	data := pngBytes(t)

	ref := models.AttachmentRef{URL: "/uploads/a.png", ContentType: "image/png", Size: int64(len(data))}
	client.On("UploadImage", mock.Anything, "shot.png", "image/png", data).Return(ref, nil).Once()

	got, err := u.Upload(context.Background(), "shot.png", data)
	require.NoError(t, err)
	assert.Equal(t, ref, got)
	client.AssertExpectations(t)
}

func TestUploadPastedImageGetsDefaultName(t *testing.T) {
	client := new(mocks.ClientMock)
	u := NewUploader(client, 0)
	data := pngBytes(t)

	client.On("UploadImage", mock.Anything, "pasted.png", "image/png", data).
		Return(models.AttachmentRef{URL: "/uploads/pasted.png"}, nil).Once()

	_, err := u.Upload(context.Background(), "", data)
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestUploadRejectsOversizedPayload(t *testing.T) {
	client := new(mocks.ClientMock)
	data := pngBytes(t)
	u := NewUploader(client, int64(len(data)-1))

	_, err := u.Upload(context.Background(), "big.png", data)
	require.ErrorIs(t, err, ErrAttachmentTooLarge)
	client.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadRejectsNonImagePayload(t *testing.T) {
	client := new(mocks.ClientMock)
	u := NewUploader(client, 0)

	_, err := u.Upload(context.Background(), "notes.txt", []byte("meeting notes, not an image"))
	require.ErrorIs(t, err, ErrUnsupportedType)
	client.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadRejectsCorruptImage(t *testing.T) {
	client := new(mocks.ClientMock)
	u := NewUploader(client, 0)

	// Valid PNG signature followed by garbage.
	data := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, bytes.Repeat([]byte{0xff}, 64)...)

	_, err := u.Upload(context.Background(), "broken.png", data)
	require.ErrorIs(t, err, ErrCorruptImage)
	client.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
