package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"kumpul/server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over Postgres, with the document-shaped
// fields (creator, participants, reactions, categories) kept as JSONB so
// writes stay field-level last-write-wins like the hosted backend they model.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store backed by the given connection pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const meetupColumns = `id, title, description, location, time, creator_id, creator, is_public,
	image_url, participants, max_participants, status, archived, categories, reactions,
	created_at, updated_at`

// InsertMeetup stores a new meetup document
func (s *PostgresStore) InsertMeetup(ctx context.Context, m *models.Meetup) error {
	creator, err := json.Marshal(m.Creator)
	if err != nil {
		return err
	}
	participants, err := json.Marshal(m.Participants)
	if err != nil {
		return err
	}
	categories, err := json.Marshal(m.Categories)
	if err != nil {
		return err
	}
	reactions, err := json.Marshal(models.CloneReactions(m.Reactions))
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO meetups (id, title, description, location, time, creator_id, creator, is_public,
			image_url, participants, max_participants, status, archived, categories, reactions,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, m.ID, m.Title, m.Description, m.Location, m.Time, m.CreatorID, creator, m.IsPublic,
		m.ImageURL, participants, m.MaxParticipants, m.Status, m.Archived, categories, reactions,
		m.CreatedAt, m.UpdatedAt)

	return err
}

// GetMeetup returns a single meetup document
func (s *PostgresStore) GetMeetup(ctx context.Context, id string) (*models.Meetup, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+meetupColumns+` FROM meetups WHERE id = $1`, id)
	return scanMeetup(row)
}

// scanMeetup decodes a meetup row including its JSONB fields
func scanMeetup(row pgx.Row) (*models.Meetup, error) {
	var m models.Meetup
	var creator, participants, categories, reactions []byte

	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Location, &m.Time, &m.CreatorID, &creator,
		&m.IsPublic, &m.ImageURL, &participants, &m.MaxParticipants, &m.Status, &m.Archived,
		&categories, &reactions, &m.CreatedAt, &m.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(creator, &m.Creator); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(participants, &m.Participants); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(categories, &m.Categories); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reactions, &m.Reactions); err != nil {
		return nil, err
	}

	return &m, nil
}

// UpdateMeetup applies a field-level merge update to a meetup document
func (s *PostgresStore) UpdateMeetup(ctx context.Context, id string, fields map[string]interface{}) error {
	query := "UPDATE meetups SET updated_at = $1"
	args := []interface{}{time.Now()}
	argCount := 2

	for key, value := range fields {
		switch key {
		case "title", "description", "location", "time", "is_public", "image_url",
			"max_participants", "status", "archived":
			query += ", " + key + " = $" + strconv.Itoa(argCount)
			args = append(args, value)
			argCount++
		case "categories":
			data, err := json.Marshal(value)
			if err != nil {
				return err
			}
			query += ", categories = $" + strconv.Itoa(argCount)
			args = append(args, data)
			argCount++
		default:
			return fmt.Errorf("unknown meetup field: %s", key)
		}
	}

	query += " WHERE id = $" + strconv.Itoa(argCount)
	args = append(args, id)

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PutParticipants replaces the participants field of a meetup document
func (s *PostgresStore) PutParticipants(ctx context.Context, id string, participants []models.UserSnapshot) error {
	data, err := json.Marshal(participants)
	if err != nil {
		return err
	}

	result, err := s.pool.Exec(ctx, `
		UPDATE meetups SET participants = $1, updated_at = $2 WHERE id = $3
	`, data, time.Now(), id)

	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PutMeetupReactions replaces the reactions field of a meetup document
func (s *PostgresStore) PutMeetupReactions(ctx context.Context, id string, reactions map[string][]string) error {
	data, err := json.Marshal(models.CloneReactions(reactions))
	if err != nil {
		return err
	}

	result, err := s.pool.Exec(ctx, `
		UPDATE meetups SET reactions = $1, updated_at = $2 WHERE id = $3
	`, data, time.Now(), id)

	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveMeetups returns all non-archived meetups ordered by time descending
func (s *PostgresStore) ListActiveMeetups(ctx context.Context) ([]*models.Meetup, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+meetupColumns+` FROM meetups WHERE archived = false ORDER BY time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetups []*models.Meetup
	for rows.Next() {
		m, err := scanMeetup(rows)
		if err != nil {
			return nil, err
		}
		meetups = append(meetups, m)
	}
	return meetups, rows.Err()
}

// InsertMessage stores a new message document under its meetup
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	reactions, err := json.Marshal(models.CloneReactions(msg.Reactions))
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO messages (id, meetup_id, text, user_id, user_name, user_image, timestamp, reactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msg.ID, msg.MeetupID, msg.Text, msg.UserID, msg.UserName, msg.UserImage, msg.Timestamp, reactions)

	return err
}

// GetMessage returns a single message document
func (s *PostgresStore) GetMessage(ctx context.Context, meetupID, messageID string) (*models.Message, error) {
	var msg models.Message
	var reactions []byte

	err := s.pool.QueryRow(ctx, `
		SELECT id, meetup_id, text, user_id, user_name, user_image, timestamp, reactions
		FROM messages WHERE meetup_id = $1 AND id = $2
	`, meetupID, messageID).Scan(&msg.ID, &msg.MeetupID, &msg.Text, &msg.UserID, &msg.UserName,
		&msg.UserImage, &msg.Timestamp, &reactions)

	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(reactions, &msg.Reactions); err != nil {
		return nil, err
	}
	return &msg, nil
}

// PutMessageReactions replaces the reactions field of a message document
func (s *PostgresStore) PutMessageReactions(ctx context.Context, meetupID, messageID string, reactions map[string][]string) error {
	data, err := json.Marshal(models.CloneReactions(reactions))
	if err != nil {
		return err
	}

	result, err := s.pool.Exec(ctx, `
		UPDATE messages SET reactions = $1 WHERE meetup_id = $2 AND id = $3
	`, data, meetupID, messageID)

	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMessages returns all messages of a meetup ordered by timestamp ascending
func (s *PostgresStore) ListMessages(ctx context.Context, meetupID string) ([]*models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, meetup_id, text, user_id, user_name, user_image, timestamp, reactions
		FROM messages WHERE meetup_id = $1 ORDER BY timestamp ASC, id ASC
	`, meetupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		var reactions []byte

		err := rows.Scan(&msg.ID, &msg.MeetupID, &msg.Text, &msg.UserID, &msg.UserName,
			&msg.UserImage, &msg.Timestamp, &reactions)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(reactions, &msg.Reactions); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
