package storage

import (
	"context"
	"fmt"

	"github.com/docassist/docassist/internal/models"
)

// AppendMessage adds one message to username's transcript.
func (s *Store) AppendMessage(ctx context.Context, username string, msg models.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (id, username, text, is_user, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, username, msg.Text, msg.IsUser, toMillis(msg.Timestamp))
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// ChatHistory returns the last limit messages for username, oldest first.
func (s *Store) ChatHistory(ctx context.Context, username string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, is_user, created_at FROM (
			SELECT seq, id, text, is_user, created_at FROM chat_messages
			WHERE username = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var (
			msg     models.ChatMessage
			created int64
		)
		if err := rows.Scan(&msg.ID, &msg.Text, &msg.IsUser, &created); err != nil {
			return nil, err
		}
		msg.Timestamp = fromMillis(created)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ClearChat deletes username's transcript.
func (s *Store) ClearChat(ctx context.Context, username string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE username = ?", username); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}
