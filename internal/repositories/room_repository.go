package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chat-sync/internal/models"
)

// RoomRepo is the sqlx-backed RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

type roomRow struct {
	ID          string         `db:"id"`
	Label       string         `db:"label"`
	MentorID    string         `db:"mentor_id"`
	MentorName  string         `db:"mentor_name"`
	LearnerID   string         `db:"learner_id"`
	LearnerName string         `db:"learner_name"`
	Status      string         `db:"status"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	Unread      int            `db:"unread"`
	LastContent sql.NullString `db:"last_content"`
	LastType    sql.NullString `db:"last_type"`
	LastTime    sql.NullTime   `db:"last_time"`
}

func (r roomRow) toModel() models.Room {
	room := models.Room{
		ID:          r.ID,
		Label:       r.Label,
		Mentor:      models.Participant{ID: r.MentorID, Name: r.MentorName, Role: models.RoleMentor},
		Learner:     models.Participant{ID: r.LearnerID, Name: r.LearnerName, Role: models.RoleLearner},
		Status:      models.RoomStatus(r.Status),
		UnreadCount: r.Unread,
		CreatedAt:   r.CreatedAt.Time,
	}
	if r.LastTime.Valid {
		content := r.LastContent.String
		if models.MessageType(r.LastType.String) == models.MessageImage && content == "" {
			content = "[image]"
		}
		room.LastMessage = &models.MessagePreview{Content: content, Time: r.LastTime.Time}
	}
	return room
}

const roomSummaryQuery = `SELECT r.id, r.label, r.mentor_id, r.mentor_name, r.learner_id, r.learner_name, r.status, r.created_at,
        (SELECT COUNT(*) FROM messages m WHERE m.room_id = r.id AND m.sender_id <> $1 AND m.is_read = FALSE) AS unread,
        lm.content AS last_content, lm.type AS last_type, lm.created_at AS last_time
    FROM rooms r
    LEFT JOIN LATERAL (
        SELECT content, type, created_at FROM messages m
        WHERE m.room_id = r.id
        ORDER BY created_at DESC, id DESC LIMIT 1
    ) lm ON TRUE`

// CreateRoom registers an open room between a mentor and a learner.
func (r *RoomRepo) CreateRoom(ctx context.Context, label string, mentor, learner models.Participant) (models.Room, error) {
	var row roomRow
	err := r.db.QueryRowxContext(ctx, `INSERT INTO rooms (id, label, mentor_id, mentor_name, learner_id, learner_name, status)
        VALUES ($1, $2, $3, $4, $5, $6, 'open')
        RETURNING id, label, mentor_id, mentor_name, learner_id, learner_name, status, created_at`,
		uuid.NewString(), label, mentor.ID, mentor.Name, learner.ID, learner.Name).
		Scan(&row.ID, &row.Label, &row.MentorID, &row.MentorName, &row.LearnerID, &row.LearnerName, &row.Status, &row.CreatedAt)
	if err != nil {
		return models.Room{}, err
	}
	return row.toModel(), nil
}

// ListRooms returns the user's rooms, most recently active first.
func (r *RoomRepo) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	query := roomSummaryQuery + `
    WHERE r.mentor_id = $1 OR r.learner_id = $1
    ORDER BY COALESCE(lm.created_at, r.created_at) DESC`

	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	rooms := make([]models.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.toModel())
	}
	return rooms, nil
}

// GetRoom returns the full room payload for a viewer, wallpapers included.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID, viewerID string) (models.RoomDetail, error) {
	var row roomRow
	err := r.db.GetContext(ctx, &row, roomSummaryQuery+` WHERE r.id = $2`, viewerID, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoomDetail{}, ErrRoomNotFound
	}
	if err != nil {
		return models.RoomDetail{}, err
	}

	type wallpaperRow struct {
		UserID    string `db:"user_id"`
		Wallpaper string `db:"wallpaper"`
	}
	var wallpapers []wallpaperRow
	if err := r.db.SelectContext(ctx, &wallpapers, `SELECT user_id, wallpaper FROM room_wallpapers WHERE room_id = $1`, roomID); err != nil {
		return models.RoomDetail{}, err
	}

	detail := models.RoomDetail{Room: row.toModel(), Wallpapers: make(map[string]string, len(wallpapers))}
	for _, w := range wallpapers {
		detail.Wallpapers[w.UserID] = w.Wallpaper
	}
	return detail, nil
}

// IsParticipant checks whether the user belongs to the room.
func (r *RoomRepo) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id=$1 AND (mentor_id=$2 OR learner_id=$2))`, roomID, userID)
	return exists, err
}

// CloseRoom performs the open → closed transition.
func (r *RoomRepo) CloseRoom(ctx context.Context, roomID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET status='closed' WHERE id=$1`, roomID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// SetWallpaper upserts a per-viewer cosmetic preference.
func (r *RoomRepo) SetWallpaper(ctx context.Context, roomID, userID, wallpaper string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO room_wallpapers (room_id, user_id, wallpaper) VALUES ($1, $2, $3)
        ON CONFLICT (room_id, user_id) DO UPDATE SET wallpaper = EXCLUDED.wallpaper`, roomID, userID, wallpaper)
	return err
}

var _ RoomRepository = (*RoomRepo)(nil)
