package notifier

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"
)

// CommandHandler is called when a user command is received and returns the
// HTML reply; an empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

// Commands lists the bot commands routed to the CommandHandler.
var Commands = []string{"/start", "/help", "/report"}

// CommandBot long-polls Telegram for commands.
type CommandBot struct {
	bot     *tele.Bot
	chatID  int64 // 0 accepts every chat
	handler CommandHandler
	ctx     context.Context // set by Start, passed to handler
}

// NewCommandBot creates a bot answering only chatID (when it parses) through handler.
func NewCommandBot(token, chatID string, handler CommandHandler) (*CommandBot, error) {
	return newCommandBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}, chatID, handler)
}

func newCommandBot(settings tele.Settings, chatID string, handler CommandHandler) (*CommandBot, error) {
	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	cb := &CommandBot{bot: b, handler: handler, ctx: context.Background()}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		cb.chatID = id
	}
	for _, cmd := range Commands {
		b.Handle(cmd, func(c tele.Context) error { return cb.respond(cb.ctx, c, cmd) })
	}
	return cb, nil
}

func (cb *CommandBot) respond(ctx context.Context, c tele.Context, cmd string) error {
	if chat := c.Chat(); cb.chatID != 0 && (chat == nil || chat.ID != cb.chatID) {
		log.Printf("[WARN] ignoring %s from unauthorized chat", cmd)
		return nil
	}
	log.Printf("[INFO] received command: %s", cmd)
	reply := cb.handler(ctx, cmd)
	if reply == "" {
		return nil
	}
	for _, part := range splitMessage(reply, maxMessageLen) {
		if err := c.Send(part, tele.ModeHTML); err != nil {
			log.Printf("[ERROR] send reply: %v", err)
			return err
		}
	}
	return nil
}

// Start polls until ctx is cancelled. Commands in flight see ctx, so
// shutdown also aborts a report being built.
func (cb *CommandBot) Start(ctx context.Context) {
	cb.ctx = ctx
	go cb.bot.Start()
	<-ctx.Done()
	cb.bot.Stop()
	log.Println("[INFO] Telegram command bot stopped")
}
