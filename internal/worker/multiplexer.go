package worker

import (
	"context"
	"log/slog"

	"foldersort/internal/logging"
	"foldersort/internal/notifications"
	"foldersort/internal/services"
)

type drainState int

const (
	stateRunning drainState = iota
	stateTerminated
)

// Multiplexer folds a worker's event stream into one outcome.
type Multiplexer struct {
	classifier *Classifier
	notifier   notifications.Service
	logger     *slog.Logger
}

// NewMultiplexer builds a Multiplexer. A nil classifier uses the default
// sentinels; a nil notifier drops notifications.
func NewMultiplexer(logger *slog.Logger, classifier *Classifier, notifier notifications.Service) *Multiplexer {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Multiplexer{
		classifier: classifier,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "worker"),
	}
}

// Drain consumes events until EventTerminated and returns the run outcome:
// nil for success, a services.ErrWorkerReported error for a sentinel or a
// non-zero exit. A stream that closes before EventTerminated yields
// services.ErrCompletionLost. Events after EventTerminated are never read.
func (m *Multiplexer) Drain(ctx context.Context, events <-chan Event) error {
	logger := logging.WithContext(ctx, m.logger)
	var outcome error
	state := stateRunning

	for state == stateRunning {
		event, ok := <-events
		if !ok {
			return services.Wrap(services.ErrCompletionLost, "worker", "drain output",
				"Worker output ended without a termination event", nil)
		}

		switch event.Kind {
		case EventStdout:
			logger.Info(event.Line, logging.String("stream", "stdout"))

		case EventStderr:
			switch m.classifier.Classify(event.Line) {
			case ClassSentinel:
				logging.WarnWithContext(logger, "worker reported sentinel", "worker_sentinel",
					logging.String("line", event.Line),
					logging.String(logging.FieldErrorHint, "add more supported files to the folder"),
					logging.String(logging.FieldImpact, "classification will not produce a manifest"),
				)
				outcome = services.Wrap(services.ErrWorkerReported, "worker", "classify stderr",
					"Worker reported a failure", &SentinelError{Phrase: event.Line})
				notifications.PublishAsync(ctx, m.notifier, logger, notifications.EventOrganizationProgress,
					notifications.Payload{"message": event.Line})
			case ClassWarning:
				logger.Warn(event.Line, logging.String("stream", "stderr"))
			default:
				// Any other stderr line resets the outcome, including a
				// pending sentinel failure.
				logger.Info(event.Line, logging.String("stream", "stderr"))
				outcome = nil
			}

		case EventTerminated:
			if event.ExitCode != nil {
				logger.Info("worker exited", logging.Int("exit_code", *event.ExitCode))
				if *event.ExitCode != 0 {
					outcome = services.Wrap(services.ErrWorkerReported, "worker", "wait",
						"Worker failed", &ExitError{Code: *event.ExitCode})
				}
			} else {
				logger.Info("worker exited without status")
			}
			state = stateTerminated
		}
	}
	return outcome
}
