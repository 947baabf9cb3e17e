package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tele "gopkg.in/telebot.v3"
)

// fakeTelegram records sendMessage calls and answers like the Bot API.
type fakeTelegram struct {
	mu    sync.Mutex
	texts []string
	chats []string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
		http.NotFound(w, r)
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.texts = append(f.texts, fmt.Sprint(payload["text"]))
	f.chats = append(f.chats, fmt.Sprint(payload["chat_id"]))
	f.mu.Unlock()
	fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
}

func (f *fakeTelegram) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeTelegram) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.chats...)
}

// idlePoller delivers no updates and returns once stopped.
type idlePoller struct{}

func (idlePoller) Poll(b *tele.Bot, updates chan tele.Update, stop chan struct{}) { <-stop }

func newTestBot(t *testing.T, chatID string, handler CommandHandler) (*CommandBot, *fakeTelegram) {
	t.Helper()
	api := &fakeTelegram{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cb, err := newCommandBot(tele.Settings{
		URL:     srv.URL,
		Token:   "TOKEN",
		Offline: true,
		Poller:  idlePoller{},
	}, chatID, handler)
	if err != nil {
		t.Fatal(err)
	}
	return cb, api
}

func commandFrom(cb *CommandBot, chatID int64, text string) tele.Context {
	return cb.bot.NewContext(tele.Update{Message: &tele.Message{
		Text: text,
		Chat: &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
	}})
}

func TestCommandBot_IgnoresOtherChats(t *testing.T) {
	called := false
	cb, api := newTestBot(t, "42", func(ctx context.Context, command string) string {
		called = true
		return "report"
	})

	if err := cb.respond(context.Background(), commandFrom(cb, 7, "/report"), "/report"); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("handler should not run for an unauthorized chat")
	}
	if n := len(api.sent()); n != 0 {
		t.Errorf("expected no messages, got %d", n)
	}
}

func TestCommandBot_RepliesToConfiguredChat(t *testing.T) {
	var got string
	cb, api := newTestBot(t, "42", func(ctx context.Context, command string) string {
		got = command
		return "<b>ok</b>"
	})

	if err := cb.respond(context.Background(), commandFrom(cb, 42, "/report"), "/report"); err != nil {
		t.Fatal(err)
	}
	if got != "/report" {
		t.Errorf("handler got %q", got)
	}
	sent := api.sent()
	if len(sent) != 1 || sent[0] != "<b>ok</b>" {
		t.Errorf("unexpected replies %q", sent)
	}
	if to := api.recipients(); len(to) != 1 || to[0] != "42" {
		t.Errorf("reply went to chats %v", to)
	}
}

func TestCommandBot_SplitsLongReply(t *testing.T) {
	line := strings.Repeat("x", 100) + " &amp; €\n"
	reply := strings.Repeat(line, 100)
	cb, api := newTestBot(t, "", func(ctx context.Context, command string) string {
		return reply
	})

	if err := cb.respond(context.Background(), commandFrom(cb, 9, "/report"), "/report"); err != nil {
		t.Fatal(err)
	}
	sent := api.sent()
	if len(sent) < 3 {
		t.Fatalf("expected the reply in several messages, got %d", len(sent))
	}
	if strings.Join(sent, "") != reply {
		t.Error("split replies do not reassemble the original")
	}
	checkParts(t, sent, maxMessageLen)
}

func TestCommandBot_EmptyReplySendsNothing(t *testing.T) {
	cb, api := newTestBot(t, "", func(ctx context.Context, command string) string { return "" })

	if err := cb.respond(context.Background(), commandFrom(cb, 9, "/start"), "/start"); err != nil {
		t.Fatal(err)
	}
	if n := len(api.sent()); n != 0 {
		t.Errorf("expected no messages, got %d", n)
	}
}

func TestCommandBot_PassesStartContext(t *testing.T) {
	var handlerErr error
	cb, _ := newTestBot(t, "", func(ctx context.Context, command string) string {
		handlerErr = ctx.Err()
		return ""
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cb.Start(ctx)
		close(done)
	}()
	cancel()
	<-done

	// A command still in flight after shutdown observes the cancelled context.
	if err := cb.bot.Trigger("/report", commandFrom(cb, 9, "/report")); err != nil {
		t.Fatal(err)
	}
	if handlerErr != context.Canceled {
		t.Errorf("handler ctx error = %v, want context.Canceled", handlerErr)
	}
}
