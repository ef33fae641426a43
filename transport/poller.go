package transport

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"intakebot/intake"
)

// Handler consumes intake events. Events within one chat are delivered
// strictly in order; distinct chats run concurrently.
type Handler interface {
	HandleEvent(ctx context.Context, ev intake.Event) error
}

// UpdateSource is the polling side of the Bot API client.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

const (
	mailboxDepth   = 16
	pollRetryDelay = 3 * time.Second
)

// Poller long-polls for updates and fans them out to one worker per chat,
// which keeps per-session ordering without serializing unrelated sessions.
type Poller struct {
	source      UpdateSource
	handler     Handler
	pollTimeout time.Duration
	logger      *zap.Logger

	mu        sync.Mutex
	mailboxes map[int64]chan intake.Event
}

func NewPoller(source UpdateSource, handler Handler, pollTimeout time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		source:      source,
		handler:     handler,
		pollTimeout: pollTimeout,
		logger:      logger,
		mailboxes:   make(map[int64]chan intake.Event),
	}
}

// Run polls until the context is cancelled. Poll failures back off and
// retry; they never terminate the loop.
func (p *Poller) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var offset int64
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			updates, err := p.source.GetUpdates(ctx, offset, p.pollTimeout)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logger.Error("getUpdates failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(pollRetryDelay):
				}
				continue
			}

			for _, u := range updates {
				if u.UpdateID >= offset {
					offset = u.UpdateID + 1
				}
				ev, ok := eventFromUpdate(u)
				if !ok {
					continue
				}
				p.dispatch(ctx, g, ev)
			}
		}
	})

	return g.Wait()
}

// dispatch routes an event to its chat's mailbox, spawning the worker on
// first contact.
func (p *Poller) dispatch(ctx context.Context, g *errgroup.Group, ev intake.Event) {
	p.mu.Lock()
	box, ok := p.mailboxes[ev.ChatID]
	if !ok {
		box = make(chan intake.Event, mailboxDepth)
		p.mailboxes[ev.ChatID] = box
		g.Go(func() error {
			p.runWorker(ctx, box)
			return nil
		})
	}
	p.mu.Unlock()

	select {
	case box <- ev:
	default:
		p.logger.Warn("chat mailbox full, dropping event", zap.Int64("chat_id", ev.ChatID))
	}
}

func (p *Poller) runWorker(ctx context.Context, box <-chan intake.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-box:
			if err := p.handler.HandleEvent(ctx, ev); err != nil {
				p.logger.Error("event handling failed",
					zap.Int64("chat_id", ev.ChatID),
					zap.Error(err),
				)
			}
		}
	}
}

// eventFromUpdate maps a Bot API update onto an intake event. Updates the
// engine has no transition for (unknown commands, stickers, empty messages)
// are dropped here.
func eventFromUpdate(u Update) (intake.Event, bool) {
	msg := u.Message
	if msg == nil {
		return intake.Event{}, false
	}

	ev := intake.Event{ChatID: msg.Chat.ID}
	switch {
	case msg.Document != nil:
		ev.Kind = intake.EventDocument
		ev.Document = &intake.Document{
			FileID:   msg.Document.FileID,
			MimeType: msg.Document.MimeType,
		}
	case msg.Text == "/start" || strings.HasPrefix(msg.Text, "/start "):
		ev.Kind = intake.EventStart
	case msg.Text == "/cancel" || strings.HasPrefix(msg.Text, "/cancel "):
		ev.Kind = intake.EventCancel
	case strings.HasPrefix(msg.Text, "/"):
		return intake.Event{}, false
	case msg.Text != "":
		ev.Kind = intake.EventText
		ev.Text = msg.Text
	default:
		return intake.Event{}, false
	}
	return ev, true
}
