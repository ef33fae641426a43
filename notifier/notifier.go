// Package notifier forwards persisted submissions to the reviewer: one
// summary message followed by the three documents, in a fixed order.
package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"intakebot/repository/models"
)

// Messenger sends messages and document forwards to a target chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
}

// DeliveryError reports which delivery stage failed. Parts sent before the
// failure stay sent; there is no retry and no rollback.
type DeliveryError struct {
	Stage string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed at %s: %v", e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Captions identifying each forwarded document.
const (
	CaptionIDCard    = "identity document"
	CaptionPsychCert = "psychiatric-clinic certificate"
	CaptionNarcCert  = "narcology-clinic certificate"
)

// Notifier delivers completed submissions to one reviewer chat.
type Notifier struct {
	messenger  Messenger
	reviewerID int64
	logger     *zap.Logger
}

func New(messenger Messenger, reviewerID int64, logger *zap.Logger) *Notifier {
	return &Notifier{
		messenger:  messenger,
		reviewerID: reviewerID,
		logger:     logger,
	}
}

// Send delivers the summary text and then the three documents. The first
// failure terminates the send and is returned as a DeliveryError. With no
// reviewer configured the send is skipped entirely.
func (n *Notifier) Send(ctx context.Context, sub *models.Submission) error {
	if n.reviewerID == 0 {
		n.logger.Warn("no reviewer chat configured, skipping notification",
			zap.Uint("submission_id", sub.ID),
		)
		return nil
	}

	if err := n.messenger.SendText(ctx, n.reviewerID, summary(sub)); err != nil {
		return &DeliveryError{Stage: "summary", Err: err}
	}

	docs := []struct {
		stage   string
		fileID  string
		caption string
	}{
		{"doc1", sub.IDCardDoc, CaptionIDCard},
		{"doc2", sub.PsychDoc, CaptionPsychCert},
		{"doc3", sub.NarcDoc, CaptionNarcCert},
	}
	for _, d := range docs {
		if err := n.messenger.SendDocument(ctx, n.reviewerID, d.fileID, d.caption); err != nil {
			return &DeliveryError{Stage: d.stage, Err: err}
		}
	}

	n.logger.Info("submission forwarded to reviewer",
		zap.Uint("submission_id", sub.ID),
		zap.Int64("reviewer_id", n.reviewerID),
	)
	return nil
}

// summary formats the five personal fields. Attachment references are
// forwarded separately and never appear in the text.
func summary(sub *models.Submission) string {
	return fmt.Sprintf(
		"New submission:\n\nFull name: %s\nAddress: %s\nNext of kin 1: %s\nNext of kin 2: %s\nPhone: %s",
		sub.FullName, sub.Address, sub.Kin1, sub.Kin2, sub.Phone,
	)
}
