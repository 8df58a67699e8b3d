// Package chat keeps the question/answer transcript for the signed-in
// user and renders answers for the terminal.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/docassist/docassist/internal/api"
	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/util/sanitize"
)

// Asker answers questions about uploaded documents. api.Client implements it.
type Asker interface {
	Ask(ctx context.Context, question, documentID string) (string, error)
}

// History persists transcripts per user. storage.Store implements it.
type History interface {
	AppendMessage(ctx context.Context, username string, msg models.ChatMessage) error
	ChatHistory(ctx context.Context, username string, limit int) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context, username string) error
}

// Conversation is the transcript for one user. It always begins with the
// assistant greeting.
type Conversation struct {
	asker    Asker
	history  History // optional
	username string
	logger   *logging.Logger

	mu       sync.Mutex
	messages []models.ChatMessage
}

// NewConversation creates an in-memory transcript holding the greeting.
// Call Load to resume a persisted one.
func NewConversation(asker Asker, history History, username string, logger *logging.Logger) *Conversation {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Conversation{
		asker:    asker,
		history:  history,
		username: username,
		logger:   logger,
		messages: []models.ChatMessage{greeting()},
	}
}

func greeting() models.ChatMessage {
	return models.NewChatMessage(constants.ChatGreeting, false)
}

// Load replaces the transcript with the persisted one. An empty history
// is seeded with the greeting.
func (c *Conversation) Load(ctx context.Context) error {
	if c.history == nil {
		return nil
	}
	msgs, err := c.history.ChatHistory(ctx, c.username, constants.ChatHistoryLimit)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(msgs) == 0 {
		c.messages = []models.ChatMessage{greeting()}
		return c.history.AppendMessage(ctx, c.username, c.messages[0])
	}
	c.messages = msgs
	return nil
}

// Messages returns a copy of the transcript, oldest first.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Ask appends the question and the assistant's reply. A blank question
// is ignored and returns ok=false. When the backend fails the reply is
// the generic error message and err carries the cause.
func (c *Conversation) Ask(ctx context.Context, question, documentID string) (reply models.ChatMessage, ok bool, err error) {
	question = sanitize.Question(question)
	if strings.TrimSpace(question) == "" {
		return models.ChatMessage{}, false, nil
	}

	c.append(ctx, models.NewChatMessage(question, true))

	answer, askErr := c.asker.Ask(ctx, question, documentID)
	if askErr != nil {
		c.logger.Warn().Str("reason", api.ErrorMessage(askErr)).Msg("Question failed")
		reply = models.NewChatMessage(constants.ChatErrorMessage, false)
	} else {
		reply = models.NewChatMessage(answer, false)
	}
	c.append(ctx, reply)
	return reply, true, askErr
}

// Clear resets the transcript to the greeting.
func (c *Conversation) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.messages = []models.ChatMessage{greeting()}
	first := c.messages[0]
	c.mu.Unlock()

	if c.history == nil {
		return nil
	}
	if err := c.history.ClearChat(ctx, c.username); err != nil {
		return err
	}
	return c.history.AppendMessage(ctx, c.username, first)
}

func (c *Conversation) append(ctx context.Context, msg models.ChatMessage) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()

	if c.history == nil {
		return
	}
	if err := c.history.AppendMessage(context.WithoutCancel(ctx), c.username, msg); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to save chat message")
	}
}
