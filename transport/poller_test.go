package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"intakebot/intake"
)

func TestEventFromUpdate(t *testing.T) {
	msg := func(m Message) Update { return Update{Message: &m} }

	tests := []struct {
		name     string
		update   Update
		wantOK   bool
		wantKind intake.EventKind
	}{
		{"start command", msg(Message{Chat: Chat{ID: 1}, Text: "/start"}), true, intake.EventStart},
		{"start with deep link", msg(Message{Chat: Chat{ID: 1}, Text: "/start ref123"}), true, intake.EventStart},
		{"cancel command", msg(Message{Chat: Chat{ID: 1}, Text: "/cancel"}), true, intake.EventCancel},
		{"free text", msg(Message{Chat: Chat{ID: 1}, Text: "Ivanov I.I."}), true, intake.EventText},
		{"document", msg(Message{Chat: Chat{ID: 1}, Document: &Document{FileID: "f", MimeType: "application/pdf"}}), true, intake.EventDocument},
		{"unknown command dropped", msg(Message{Chat: Chat{ID: 1}, Text: "/help"}), false, 0},
		{"empty message dropped", msg(Message{Chat: Chat{ID: 1}}), false, 0},
		{"no message dropped", Update{}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := eventFromUpdate(tt.update)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantKind, ev.Kind)
				assert.Equal(t, int64(1), ev.ChatID)
			}
		})
	}
}

func TestEventFromUpdateCarriesPayload(t *testing.T) {
	ev, ok := eventFromUpdate(Update{Message: &Message{
		Chat: Chat{ID: 5},
		Text: "Main St 1",
	}})
	require.True(t, ok)
	assert.Equal(t, "Main St 1", ev.Text)

	ev, ok = eventFromUpdate(Update{Message: &Message{
		Chat:     Chat{ID: 5},
		Document: &Document{FileID: "f-9", MimeType: "image/png"},
	}})
	require.True(t, ok)
	require.NotNil(t, ev.Document)
	assert.Equal(t, "f-9", ev.Document.FileID)
	assert.Equal(t, "image/png", ev.Document.MimeType)
}

// batchSource serves one fixed batch, then blocks until the context ends.
type batchSource struct {
	once    sync.Once
	updates []Update
}

func (s *batchSource) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]Update, error) {
	var batch []Update
	s.once.Do(func() { batch = s.updates })
	if batch != nil {
		return batch, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

// recordingHandler records events per chat and signals when enough arrived.
type recordingHandler struct {
	mu     sync.Mutex
	byChat map[int64][]intake.Event
	want   int
	seen   int
	done   chan struct{}
}

func (h *recordingHandler) HandleEvent(_ context.Context, ev intake.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byChat[ev.ChatID] = append(h.byChat[ev.ChatID], ev)
	h.seen++
	if h.seen == h.want {
		close(h.done)
	}
	return nil
}

func TestPollerKeepsPerChatOrder(t *testing.T) {
	source := &batchSource{updates: []Update{
		{UpdateID: 1, Message: &Message{Chat: Chat{ID: 10}, Text: "/start"}},
		{UpdateID: 2, Message: &Message{Chat: Chat{ID: 20}, Text: "/start"}},
		{UpdateID: 3, Message: &Message{Chat: Chat{ID: 10}, Text: "first"}},
		{UpdateID: 4, Message: &Message{Chat: Chat{ID: 20}, Text: "second"}},
		{UpdateID: 5, Message: &Message{Chat: Chat{ID: 10}, Text: "/cancel"}},
	}}
	handler := &recordingHandler{
		byChat: make(map[int64][]intake.Event),
		want:   5,
		done:   make(chan struct{}),
	}

	poller := NewPoller(source, handler, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- poller.Run(ctx) }()

	select {
	case <-handler.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	handler.mu.Lock()
	defer handler.mu.Unlock()

	chat10 := handler.byChat[10]
	require.Len(t, chat10, 3)
	assert.Equal(t, intake.EventStart, chat10[0].Kind)
	assert.Equal(t, intake.EventText, chat10[1].Kind)
	assert.Equal(t, "first", chat10[1].Text)
	assert.Equal(t, intake.EventCancel, chat10[2].Kind)

	chat20 := handler.byChat[20]
	require.Len(t, chat20, 2)
	assert.Equal(t, intake.EventStart, chat20[0].Kind)
	assert.Equal(t, "second", chat20[1].Text)
}
