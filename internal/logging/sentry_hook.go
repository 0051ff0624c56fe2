package logging

import (
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

const sentryFlushTimeout = 2 * time.Second

var SentryLevels = []log.Level{
	log.PanicLevel,
	log.FatalLevel,
	log.ErrorLevel,
}

// SentryHook forwards log entries to sentry. Entries carrying an error field
// are sent as exceptions, the rest as messages.
type SentryHook struct {
	levels []log.Level
	hub    *sentry.Hub
}

var _ log.Hook = (*SentryHook)(nil)

func NewSentryHook(levels []log.Level) *SentryHook {
	return &SentryHook{
		levels: levels,
		hub:    sentry.CurrentHub(),
	}
}

func (h *SentryHook) Levels() []log.Level {
	return h.levels
}

func (h *SentryHook) Fire(entry *log.Entry) error {
	if h.hub == nil || h.hub.Client() == nil {
		return nil
	}

	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(entry.Level))
		for k, v := range entry.Data {
			if k == log.ErrorKey {
				continue
			}
			scope.SetExtra(k, v)
		}

		if err, ok := entry.Data[log.ErrorKey].(error); ok && err != nil {
			scope.SetExtra("message", entry.Message)
			h.hub.CaptureException(err)
			return
		}
		h.hub.CaptureMessage(entry.Message)
	})

	// the process is about to die, nothing would send the event later
	if entry.Level <= log.FatalLevel {
		h.hub.Flush(sentryFlushTimeout)
	}

	return nil
}

func sentryLevel(level log.Level) sentry.Level {
	switch level {
	case log.PanicLevel, log.FatalLevel:
		return sentry.LevelFatal
	case log.ErrorLevel:
		return sentry.LevelError
	case log.WarnLevel:
		return sentry.LevelWarning
	case log.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
