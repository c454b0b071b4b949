package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sori/internal/config"
	"sori/internal/ledger"
	"sori/internal/logging"
	"sori/internal/notifications"
	"sori/internal/preflight"
	"sori/internal/services"
	"sori/internal/vocab"
)

// requiredTexts loads the documents and extracts every text needing
// audio. Zero texts is run-fatal: an empty extraction means the
// vocabulary document is broken, and syncing against it would sweep the
// whole store.
func requiredTexts(cfg *config.Config, phase string) ([]string, error) {
	doc, err := vocab.LoadDocument(cfg.VocabPath())
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, phase, "load vocabulary", "", err)
	}
	sentences, err := vocab.LoadSentences(cfg.SentencesPath())
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, phase, "load sentences", "", err)
	}
	texts := vocab.Texts(doc, sentences)
	if len(texts) == 0 {
		return nil, services.Wrap(services.ErrValidation, phase, "extract texts",
			"documents yielded no texts, refusing to empty the store", nil)
	}
	return texts, nil
}

// failedCheckSummary joins the failing checks into one error detail.
func failedCheckSummary(results []preflight.Result) string {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	return strings.Join(failed, "; ")
}

// notifyError publishes an error notification and returns err unchanged,
// so call sites can notify and return in one statement.
func notifyError(ctx context.Context, notifier notifications.Service, logger *slog.Logger, label string, err error) error {
	if publishErr := notifier.Publish(ctx, notifications.EventError, notifications.Payload{
		"context": label,
		"error":   err.Error(),
	}); publishErr != nil {
		logger.Debug("error notification failed", logging.Error(publishErr))
	}
	return err
}

// publish sends a completion notification. Delivery problems are warned
// about and dropped; notifications never fail a run.
func publish(ctx context.Context, notifier notifications.Service, logger *slog.Logger, event notifications.Event, data notifications.Payload) {
	if err := notifier.Publish(ctx, event, data); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "push notification not delivered"))
	}
}

// recordRun appends the run to the ledger. History is best effort; a
// ledger problem never fails the pipeline.
func recordRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, run ledger.Run) {
	l, err := ledger.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "ledger unavailable", "ledger_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run not recorded in history"))
		return
	}
	defer l.Close()
	if err := l.Record(ctx, run); err != nil {
		logging.WarnWithContext(logger, "ledger record failed", "ledger_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run not recorded in history"))
	}
}
