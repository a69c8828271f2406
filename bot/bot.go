// Package bot runs the Telegram message loop: plain text submitted in a
// chat is added to the chat's group knowledge base, /ask retrieves the
// nearest documents and synthesizes an answer.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/creastat/knowledgebot/answer"
	"github.com/creastat/knowledgebot/docstore"
	"github.com/creastat/knowledgebot/embedding"
	"github.com/creastat/knowledgebot/knowledge"
	"github.com/creastat/knowledgebot/session"
	"github.com/creastat/knowledgebot/vectorstore"
)

// User-facing replies. Failures degrade to these; they never crash the
// request path.
const (
	replyGreeting    = "Hi! Send me text and I will add it to this chat's knowledge base. Ask questions with /ask."
	replyAdded       = "Document added!"
	replyAddFailed   = "Could not add the document, please try again."
	replyNoDocuments = "No similar documents found."
	replyUnavailable = "Search is temporarily unavailable, please try again later."
	replyNoAnswer    = "Could not generate an answer, please try again."
	replyAskUsage    = "Usage: /ask <question>"
)

// Config holds bot behavior settings.
type Config struct {
	// SearchLimit is the number of nearest documents retrieved per query.
	SearchLimit int

	// HistoryMessages and HistoryTokens bound the conversation context
	// handed to the synthesizer.
	HistoryMessages int
	HistoryTokens   int
}

// Bot wires the Telegram update loop to the knowledge manager.
type Bot struct {
	api      *tgbotapi.BotAPI
	manager  *knowledge.Manager
	encoder  embedding.Encoder
	synth    answer.Synthesizer
	store    docstore.Store
	sessions session.Store
	logger   *zap.Logger
	cfg      Config
}

// New creates a bot connected to the Telegram API with the given token.
func New(token string, manager *knowledge.Manager, encoder embedding.Encoder, synth answer.Synthesizer, store docstore.Store, sessions session.Store, cfg Config, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = knowledge.DefaultSearchLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:      api,
		manager:  manager,
		encoder:  encoder,
		synth:    synth,
		store:    store,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
	}, nil
}

// Run polls for updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			msg := update.Message
			go b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage dispatches one incoming message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		switch msg.Command() {
		case "start":
			b.reply(msg, replyGreeting)
		case "ask":
			query := strings.TrimSpace(msg.CommandArguments())
			if query == "" {
				b.reply(msg, replyAskUsage)
				return
			}
			b.handleQuery(ctx, msg, query)
		default:
			b.reply(msg, replyAskUsage)
		}
	default:
		b.handleAdd(ctx, msg)
	}
}

// handleAdd embeds the message text and adds it to the chat's group.
func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message) {
	groupID := b.groupFor(ctx, msg.Chat.ID)

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	vector, err := b.encoder.Encode(ctx, msg.Text)
	if err != nil {
		b.logger.Error("failed to embed document",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		b.reply(msg, replyAddFailed)
		return
	}

	doc := docstore.Document{
		UserID: userID,
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}
	position, err := b.manager.AddDocument(ctx, groupID, vector, doc)
	if err != nil {
		b.logger.Error("failed to add document",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		b.reply(msg, replyAddFailed)
		return
	}

	b.logger.Info("document stored",
		zap.String("group_id", groupID),
		zap.Int("position", position),
	)
	b.reply(msg, replyAdded)
}

// handleQuery retrieves the nearest documents and synthesizes an answer.
func (b *Bot) handleQuery(ctx context.Context, msg *tgbotapi.Message, query string) {
	groupID := b.groupFor(ctx, msg.Chat.ID)

	vector, err := b.encoder.Encode(ctx, query)
	if err != nil {
		b.logger.Error("failed to embed query",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		b.reply(msg, replyUnavailable)
		return
	}

	passages, err := b.manager.Search(ctx, groupID, vector, b.cfg.SearchLimit)
	if err != nil {
		b.logger.Error("search failed",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		if errors.Is(err, vectorstore.ErrUnavailable) {
			b.reply(msg, replyUnavailable)
		} else {
			b.reply(msg, replyNoAnswer)
		}
		return
	}
	if len(passages) == 0 {
		b.reply(msg, replyNoDocuments)
		return
	}

	chat, fresh := b.loadSession(ctx, msg.Chat.ID, groupID)
	chat.Truncate(b.cfg.HistoryTokens, b.cfg.HistoryMessages)

	text, err := b.synth.Answer(ctx, passages, query, chat.History)
	if err != nil {
		b.logger.Error("answer synthesis failed",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		b.reply(msg, replyNoAnswer)
		return
	}

	chat.Append("user", query)
	chat.Append("assistant", text)
	chat.Truncate(b.cfg.HistoryTokens, b.cfg.HistoryMessages)
	b.saveSession(ctx, chat, fresh)

	b.reply(msg, text)
}

// groupFor resolves the group a chat submits to. An unmapped chat gets its
// own per-chat group so the bot stays usable before routing is configured.
func (b *Bot) groupFor(ctx context.Context, chatID int64) string {
	groupID, err := b.store.GroupForChat(ctx, chatID)
	if err != nil {
		if !errors.Is(err, docstore.ErrNoGroup) {
			b.logger.Warn("chat routing lookup failed",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}
		return fmt.Sprintf("chat-%d", chatID)
	}
	return groupID
}

// loadSession fetches the chat's conversation state, or starts a fresh one.
func (b *Bot) loadSession(ctx context.Context, chatID int64, groupID string) (*session.ChatSession, bool) {
	chat, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.Warn("failed to load session",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
	if chat == nil {
		return &session.ChatSession{ChatID: chatID, GroupID: groupID}, true
	}
	return chat, false
}

// saveSession persists the conversation state. A lost update only costs
// history context, so conflicts are logged, not surfaced.
func (b *Bot) saveSession(ctx context.Context, chat *session.ChatSession, fresh bool) {
	var err error
	if fresh {
		err = b.sessions.Create(ctx, chat)
	} else {
		err = b.sessions.Update(ctx, chat)
	}
	if err != nil {
		b.logger.Warn("failed to save session",
			zap.Int64("chat_id", chat.ChatID),
			zap.Error(err),
		)
	}
}

// reply sends text back into the chat the message came from.
func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send reply",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err),
		)
	}
}
