package sentry

import (
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"tunecrate/config"
)

// Init starts the Sentry client when a DSN is configured. Without one the
// library runs fully offline and every Report call is a no-op.
func Init() {
	if config.Config == nil || !config.Config.Sentry.IsEnabled() {
		log.Debug("sentry disabled, no DSN configured")
		return
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.Config.Sentry.DSN,
		TracesSampleRate: 1.0,
	}); err != nil {
		log.Errorf("sentry.Init: %s", err)
	}
}

func ReportError(err error) {
	sentry.CaptureException(err)
}

func ReportMessage(message string) {
	sentry.CaptureMessage(message)
}
