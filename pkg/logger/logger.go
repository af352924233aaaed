package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New создает логгер. По умолчанию JSON, format "text" удобнее при локальной отладке.
func New(logLevel, format string) *logrus.Logger {
	log := logrus.New()

	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	default:
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	log.SetOutput(os.Stdout)

	// Уровень логирования
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Уровень по умолчанию, если передан некорректный
	}
	log.SetLevel(level)
	return log
}
