package services

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceIdentifier is the slice of the DI instance contract the logger
// needs: a stable name to tag events with.
type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every event with the owning service's ID so engine,
// mint and http log lines stay distinguishable in one stream.
type ServiceLogger struct {
	logger zerolog.Logger
}

func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return &ServiceLogger{
		logger: log.With().Str("service", svc.ID()).Logger(),
	}
}

func (l *ServiceLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *ServiceLogger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Err is Error with the error already attached.
func (l *ServiceLogger) Err(err error) *zerolog.Event {
	return l.logger.Error().Err(err)
}

func (l *ServiceLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *ServiceLogger) Debug() *zerolog.Event {
	return l.logger.Debug()
}
