package logging

import (
	"io"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/2beens/fitlog/pkg"
)

const logFileMaxSizeMB = 50

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logrus logger. Errors are only logged, the
// service keeps running without sentry if its client cannot be created.
func Setup(params LoggerSetupParams) {
	if params.LogFormatJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}

	if params.SentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Environment:      params.Environment,
			Dsn:              params.SentryDSN,
			TracesSampleRate: 1.0,
			ServerName:       params.SentryServerName,
		}); err != nil {
			log.Errorf("sentry init: %s", err)
		} else {
			log.AddHook(NewSentryHook(SentryLevels))
			log.Infoln("sentry set up successfully")
		}
	}

	log.SetLevel(GetLevel(params.LogLevel))
	log.SetOutput(newLogWriter(params.LogFileName, params.LogToStdout))
}

func newLogWriter(logFileName string, logToStdout bool) io.Writer {
	if logFileName == "" {
		log.Println("writing logs only to STDOUT")
		return os.Stdout
	}

	if !strings.HasSuffix(logFileName, ".log") {
		logFileName += ".log"
	}

	fileLogger := &lumberjack.Logger{
		Filename:  logFileName,
		MaxSize:   logFileMaxSizeMB,
		LocalTime: false, // UTC
		Compress:  true,
	}

	if !logToStdout {
		return fileLogger
	}

	log.Println("writing logs to file and STDOUT")
	return pkg.NewCombinedWriter(os.Stdout, fileLogger)
}

func GetLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "panic":
		return log.PanicLevel
	case "fatal":
		return log.FatalLevel
	case "error":
		return log.ErrorLevel
	case "warn", "warning":
		return log.WarnLevel
	case "info":
		return log.InfoLevel
	case "debug":
		return log.DebugLevel
	default:
		return log.TraceLevel
	}
}
