// Package intake implements the conversational intake state machine: eight
// strictly ordered states collecting five text fields and three PDF
// attachments, a fixed completion sequence (persist, purge, notify, ack),
// and cancellation from any state.
package intake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"intakebot/repository/models"
)

// Store persists completed submissions and sweeps expired ones.
type Store interface {
	InsertSubmission(ctx context.Context, sub *models.Submission) (*models.Submission, error)
	PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Messenger sends replies back to the submitting chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Notifier forwards a persisted submission to the reviewer.
type Notifier interface {
	Send(ctx context.Context, sub *models.Submission) error
}

// session is one in-progress intake. It lives only in memory; nothing is
// persisted until the final document is accepted.
type session struct {
	chatID int64
	step   int // index into flow
	form   Form
}

// Engine drives intake sessions. State is partitioned by chat id; the
// transport serializes events within a chat, so only the session map itself
// needs locking.
type Engine struct {
	store     Store
	messenger Messenger
	notifier  Notifier
	retention time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewEngine(store Store, messenger Messenger, notifier Notifier, retention time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		store:     store,
		messenger: messenger,
		notifier:  notifier,
		retention: retention,
		logger:    logger,
		sessions:  make(map[int64]*session),
	}
}

// HandleEvent processes one inbound event to completion. Validation problems
// re-prompt and return nil; only transport failures surface as errors.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) error {
	log := e.logger.With(
		zap.String("event_id", uuid.NewString()),
		zap.Int64("chat_id", ev.ChatID),
	)

	switch ev.Kind {
	case EventStart:
		return e.start(ctx, log, ev.ChatID)
	case EventCancel:
		return e.cancel(ctx, log, ev.ChatID)
	default:
		sess := e.lookup(ev.ChatID)
		if sess == nil {
			log.Debug("no active session, ignoring message")
			return nil
		}
		return e.advance(ctx, log, sess, ev)
	}
}

// start creates a fresh session, or restarts an existing one from the first
// state, discarding everything collected so far.
func (e *Engine) start(ctx context.Context, log *zap.Logger, chatID int64) error {
	e.mu.Lock()
	if _, ok := e.sessions[chatID]; ok {
		log.Info("restarting in-progress session")
	}
	e.sessions[chatID] = &session{chatID: chatID}
	e.mu.Unlock()

	return e.messenger.SendText(ctx, chatID, flow[0].prompt)
}

func (e *Engine) cancel(ctx context.Context, log *zap.Logger, chatID int64) error {
	e.mu.Lock()
	_, ok := e.sessions[chatID]
	delete(e.sessions, chatID)
	e.mu.Unlock()

	if !ok {
		log.Debug("cancel without active session, ignoring")
		return nil
	}
	log.Info("session cancelled")
	return e.messenger.SendText(ctx, chatID, cancelText)
}

// advance applies one event to the session's current step. Accepted input is
// stored and the session moves on; rejected input re-prompts and leaves both
// state and form untouched.
func (e *Engine) advance(ctx context.Context, log *zap.Logger, sess *session, ev Event) error {
	st := flow[sess.step]

	switch {
	case st.kind == EventText && ev.Kind == EventText:
		st.assign(&sess.form, ev.Text)
	case st.kind == EventDocument && ev.Kind == EventDocument &&
		ev.Document != nil && ev.Document.MimeType == pdfMimeType:
		st.assign(&sess.form, ev.Document.FileID)
	default:
		log.Info("input rejected", zap.String("state", string(st.state)))
		return e.messenger.SendText(ctx, sess.chatID, st.reprompt)
	}

	if sess.step+1 < len(flow) {
		sess.step++
		return e.messenger.SendText(ctx, sess.chatID, flow[sess.step].prompt)
	}
	return e.complete(ctx, log, sess)
}

// complete runs the terminal transition: persist first, then purge, then
// notify, then ack. A failed insert keeps the session alive in its final
// state so the submitter can retry; purge and notification failures are
// logged and never reach the submitter, since the row is already durable.
func (e *Engine) complete(ctx context.Context, log *zap.Logger, sess *session) error {
	created, err := e.store.InsertSubmission(ctx, sess.form.submission(sess.chatID))
	if err != nil {
		log.Error("submission insert failed", zap.Error(err))
		return e.messenger.SendText(ctx, sess.chatID, retryText)
	}
	log.Info("submission persisted", zap.Uint("submission_id", created.ID))

	if removed, err := e.store.PurgeExpired(ctx, e.retention); err != nil {
		log.Warn("retention purge failed", zap.Error(err))
	} else if removed > 0 {
		log.Info("purged expired submissions", zap.Int64("removed", removed))
	}

	if err := e.notifier.Send(ctx, created); err != nil {
		log.Error("reviewer notification failed", zap.Error(err))
	}

	err = e.messenger.SendText(ctx, sess.chatID, ackText)

	e.mu.Lock()
	delete(e.sessions, sess.chatID)
	e.mu.Unlock()

	return err
}

func (e *Engine) lookup(chatID int64) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[chatID]
}

// submission copies the collected form into a storage row.
func (f *Form) submission(chatID int64) *models.Submission {
	return &models.Submission{
		SubmitterID: chatID,
		FullName:    f.FullName,
		Address:     f.Address,
		Kin1:        f.Kin1,
		Kin2:        f.Kin2,
		Phone:       f.Phone,
		IDCardDoc:   f.IDCard,
		PsychDoc:    f.Psych,
		NarcDoc:     f.Narc,
	}
}
