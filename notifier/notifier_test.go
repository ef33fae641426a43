package notifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"intakebot/notifier"
	"intakebot/repository/models"
)

type delivery struct {
	kind    string // "text" or "document"
	chatID  int64
	text    string
	fileID  string
	caption string
}

type fakeMessenger struct {
	deliveries []delivery
	failAt     string // fileID or "summary"
}

func (m *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	if m.failAt == "summary" {
		return errors.New("network down")
	}
	m.deliveries = append(m.deliveries, delivery{kind: "text", chatID: chatID, text: text})
	return nil
}

func (m *fakeMessenger) SendDocument(_ context.Context, chatID int64, fileID, caption string) error {
	if m.failAt == fileID {
		return errors.New("network down")
	}
	m.deliveries = append(m.deliveries, delivery{kind: "document", chatID: chatID, fileID: fileID, caption: caption})
	return nil
}

func sampleSubmission() *models.Submission {
	return &models.Submission{
		ID:          1,
		SubmitterID: 42,
		FullName:    "Ivanov I.I.",
		Address:     "Main St 1",
		Kin1:        "Petrov P.P. +7000",
		Kin2:        "Sidorov S.S. +7001",
		Phone:       "+7999",
		IDCardDoc:   "file-doc1",
		PsychDoc:    "file-doc2",
		NarcDoc:     "file-doc3",
	}
}

func TestSendDeliversSummaryThenDocumentsInOrder(t *testing.T) {
	messenger := &fakeMessenger{}
	n := notifier.New(messenger, 99, zap.NewNop())

	require.NoError(t, n.Send(context.Background(), sampleSubmission()))
	require.Len(t, messenger.deliveries, 4)

	first := messenger.deliveries[0]
	assert.Equal(t, "text", first.kind)
	assert.Equal(t, int64(99), first.chatID)
	assert.Contains(t, first.text, "Ivanov I.I.")
	assert.Contains(t, first.text, "Main St 1")
	assert.Contains(t, first.text, "Petrov P.P. +7000")
	assert.Contains(t, first.text, "Sidorov S.S. +7001")
	assert.Contains(t, first.text, "+7999")
	// Attachment references stay out of the summary text.
	assert.NotContains(t, first.text, "file-doc1")

	wantDocs := []struct {
		fileID  string
		caption string
	}{
		{"file-doc1", notifier.CaptionIDCard},
		{"file-doc2", notifier.CaptionPsychCert},
		{"file-doc3", notifier.CaptionNarcCert},
	}
	for i, want := range wantDocs {
		got := messenger.deliveries[i+1]
		assert.Equal(t, "document", got.kind)
		assert.Equal(t, int64(99), got.chatID)
		assert.Equal(t, want.fileID, got.fileID)
		assert.Equal(t, want.caption, got.caption)
	}
}

func TestSendFailureReportsStageAndStops(t *testing.T) {
	t.Run("summary failure sends nothing else", func(t *testing.T) {
		messenger := &fakeMessenger{failAt: "summary"}
		n := notifier.New(messenger, 99, zap.NewNop())

		err := n.Send(context.Background(), sampleSubmission())
		var dErr *notifier.DeliveryError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, "summary", dErr.Stage)
		assert.Empty(t, messenger.deliveries)
	})

	t.Run("second document failure keeps earlier parts sent", func(t *testing.T) {
		messenger := &fakeMessenger{failAt: "file-doc2"}
		n := notifier.New(messenger, 99, zap.NewNop())

		err := n.Send(context.Background(), sampleSubmission())
		var dErr *notifier.DeliveryError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, "doc2", dErr.Stage)
		// Summary and doc1 were already delivered; no rollback.
		require.Len(t, messenger.deliveries, 2)
		assert.Equal(t, "text", messenger.deliveries[0].kind)
		assert.Equal(t, "file-doc1", messenger.deliveries[1].fileID)
	})
}

func TestSendSkippedWithoutReviewer(t *testing.T) {
	messenger := &fakeMessenger{}
	n := notifier.New(messenger, 0, zap.NewNop())

	require.NoError(t, n.Send(context.Background(), sampleSubmission()))
	assert.Empty(t, messenger.deliveries)
}
