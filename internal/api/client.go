package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"chat-sync/internal/models"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room is closed")
)

// TokenProvider supplies the bearer credential attached to every request.
// Credential lifecycle (issuing, refresh, expiry) is owned by the auth
// collaborator; the engine only carries the token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider returning a fixed credential.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// CheckNewResult is the response of a cursor-bounded poll query.
type CheckNewResult struct {
	HasNewMessages bool             `json:"has_new_messages"`
	Messages       []models.Message `json:"new_messages"`
}

// Client is the messaging API surface the engine consumes. All payloads are
// JSON; authentication is a bearer token on every request.
type Client interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	GetRoom(ctx context.Context, roomID string) (models.RoomDetail, error)
	ListMessages(ctx context.Context, roomID string, page, pageSize int) ([]models.Message, error)
	CheckNew(ctx context.Context, roomID string, since time.Time) (CheckNewResult, error)
	SendText(ctx context.Context, roomID, content string) (models.Message, error)
	UploadImage(ctx context.Context, filename, contentType string, data []byte) (models.AttachmentRef, error)
	SendImage(ctx context.Context, roomID string, ref models.AttachmentRef, caption string) (models.Message, error)
	MarkRead(ctx context.Context, roomID string) error
	SetWallpaper(ctx context.Context, roomID, wallpaper string) error
}

// HTTPClient is the HTTP/JSON implementation of Client.
type HTTPClient struct {
	baseURL string
	tokens  TokenProvider
	hc      *http.Client
}

// NewHTTPClient constructs a client against the messaging service base URL.
func NewHTTPClient(baseURL string, tokens TokenProvider) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		tokens:  tokens,
		hc:      &http.Client{},
	}
}

// ListRooms returns the caller's conversation summaries.
func (c *HTTPClient) ListRooms(ctx context.Context) ([]models.Room, error) {
	var resp struct {
		Rooms []models.Room `json:"rooms"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/rooms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// GetRoom fetches the full room payload used to prime a session.
func (c *HTTPClient) GetRoom(ctx context.Context, roomID string) (models.RoomDetail, error) {
	var detail models.RoomDetail
	err := c.doJSON(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID), nil, &detail)
	return detail, err
}

// ListMessages fetches one ordered page of a room's log. Page 1 is the most
// recent page; messages within a page are ascending by (time, id).
func (c *HTTPClient) ListMessages(ctx context.Context, roomID string, page, pageSize int) ([]models.Message, error) {
	path := fmt.Sprintf("/rooms/%s/messages?page=%d&page_size=%d",
		url.PathEscape(roomID), page, pageSize)
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// CheckNew asks for messages strictly newer than the cursor.
func (c *HTTPClient) CheckNew(ctx context.Context, roomID string, since time.Time) (CheckNewResult, error) {
	path := "/rooms/" + url.PathEscape(roomID) + "/messages/new?since=" +
		url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	var result CheckNewResult
	err := c.doJSON(ctx, http.MethodGet, path, nil, &result)
	return result, err
}

// SendText creates a text message in the room.
func (c *HTTPClient) SendText(ctx context.Context, roomID, content string) (models.Message, error) {
	req := map[string]string{"content": content}
	var msg models.Message
	err := c.doJSON(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/messages", req, &msg)
	return msg, err
}

// SendImage creates an image message from a previously uploaded attachment.
func (c *HTTPClient) SendImage(ctx context.Context, roomID string, ref models.AttachmentRef, caption string) (models.Message, error) {
	req := struct {
		Attachment models.AttachmentRef `json:"attachment"`
		Caption    string               `json:"caption,omitempty"`
	}{Attachment: ref, Caption: caption}
	var msg models.Message
	err := c.doJSON(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/images", req, &msg)
	return msg, err
}

// UploadImage posts the binary payload and returns its durable reference.
func (c *HTTPClient) UploadImage(ctx context.Context, filename, contentType string, data []byte) (models.AttachmentRef, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return models.AttachmentRef{}, err
	}
	if _, err := part.Write(data); err != nil {
		return models.AttachmentRef{}, err
	}
	if err := writer.Close(); err != nil {
		return models.AttachmentRef{}, err
	}

	ctx, span := otel.Tracer("chat-sync/api").Start(ctx, "POST /uploads")
	defer span.End()

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/uploads", body)
	if err != nil {
		return models.AttachmentRef{}, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	var ref models.AttachmentRef
	err = c.send(httpReq, &ref)
	return ref, err
}

// MarkRead flags the room's messages as read for the caller. Best effort:
// the engine treats read state as a cache, never as authoritative.
func (c *HTTPClient) MarkRead(ctx context.Context, roomID string) error {
	return c.doJSON(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/read", nil, nil)
}

// SetWallpaper stores the caller's cosmetic wallpaper preference.
func (c *HTTPClient) SetWallpaper(ctx context.Context, roomID, wallpaper string) error {
	req := map[string]string{"wallpaper": wallpaper}
	return c.doJSON(ctx, http.MethodPut, "/rooms/"+url.PathEscape(roomID)+"/wallpaper", req, nil)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	ctx, span := otel.Tracer("chat-sync/api").Start(ctx, method+" "+path)
	defer span.End()

	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return c.send(httpReq, respBody)
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *HTTPClient) send(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrRoomNotFound
	case http.StatusConflict:
		return ErrRoomClosed
	}
	if payload.Error != "" {
		return fmt.Errorf("messaging api: %s (status %s)", payload.Error, strconv.Itoa(resp.StatusCode))
	}
	return fmt.Errorf("messaging api: unexpected status %d", resp.StatusCode)
}
