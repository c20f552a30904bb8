package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chat-sync/internal/models"
)

// MessageRepo is the sqlx-backed MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

type messageRow struct {
	ID              string         `db:"id"`
	RoomID          string         `db:"room_id"`
	SenderID        string         `db:"sender_id"`
	Type            string         `db:"type"`
	Content         string         `db:"content"`
	AttachmentURL   sql.NullString `db:"attachment_url"`
	AttachmentThumb sql.NullString `db:"attachment_thumb"`
	AttachmentCType sql.NullString `db:"attachment_ctype"`
	AttachmentSize  sql.NullInt64  `db:"attachment_size"`
	IsRead          bool           `db:"is_read"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (r messageRow) toModel() models.Message {
	msg := models.Message{
		ID:       r.ID,
		RoomID:   r.RoomID,
		SenderID: r.SenderID,
		Type:     models.MessageType(r.Type),
		Content:  r.Content,
		IsRead:   r.IsRead,
		Time:     r.CreatedAt,
	}
	if r.AttachmentURL.Valid {
		msg.Attachment = &models.AttachmentRef{
			URL:          r.AttachmentURL.String,
			ThumbnailURL: r.AttachmentThumb.String,
			ContentType:  r.AttachmentCType.String,
			Size:         r.AttachmentSize.Int64,
		}
	}
	return msg
}

const messageColumns = `id, room_id, sender_id, type, content, attachment_url, attachment_thumb, attachment_ctype, attachment_size, is_read, created_at`

// CreateMessage stores a message, rejecting sends into closed rooms.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID, senderID string, msgType models.MessageType, content string, attachment *models.AttachmentRef) (models.Message, error) {
	var status string
	err := r.db.GetContext(ctx, &status, `SELECT status FROM rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrRoomNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	if models.RoomStatus(status) == models.RoomClosed {
		return models.Message{}, ErrRoomClosed
	}

	var url, thumb, ctype sql.NullString
	var size sql.NullInt64
	if attachment != nil {
		url = sql.NullString{String: attachment.URL, Valid: true}
		thumb = sql.NullString{String: attachment.ThumbnailURL, Valid: attachment.ThumbnailURL != ""}
		ctype = sql.NullString{String: attachment.ContentType, Valid: attachment.ContentType != ""}
		size = sql.NullInt64{Int64: attachment.Size, Valid: attachment.Size > 0}
	}

	var row messageRow
	err = r.db.GetContext(ctx, &row, `INSERT INTO messages (id, room_id, sender_id, type, content, attachment_url, attachment_thumb, attachment_ctype, attachment_size)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+messageColumns,
		uuid.NewString(), roomID, senderID, string(msgType), content, url, thumb, ctype, size)
	if err != nil {
		return models.Message{}, err
	}
	return row.toModel(), nil
}

// ListMessages returns one page, page 1 being the most recent, each page in
// ascending order.
func (r *MessageRepo) ListMessages(ctx context.Context, roomID string, page, pageSize int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	query := `SELECT ` + messageColumns + ` FROM (
            SELECT ` + messageColumns + ` FROM messages
            WHERE room_id = $1
            ORDER BY created_at DESC, id DESC
            LIMIT $2 OFFSET $3
        ) page ORDER BY created_at ASC, id ASC`

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, roomID, pageSize, (page-1)*pageSize); err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

// MessagesSince returns messages strictly newer than the cursor, ascending.
func (r *MessageRepo) MessagesSince(ctx context.Context, roomID string, since time.Time) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE room_id = $1 AND created_at > $2
        ORDER BY created_at ASC, id ASC`

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, roomID, since); err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

// MarkRead flags the counterpart's messages read for the reader.
func (r *MessageRepo) MarkRead(ctx context.Context, roomID, readerID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE
        WHERE room_id = $1 AND sender_id <> $2 AND is_read = FALSE`, roomID, readerID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func toModels(rows []messageRow) []models.Message {
	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toModel())
	}
	return msgs
}

var _ MessageRepository = (*MessageRepo)(nil)
