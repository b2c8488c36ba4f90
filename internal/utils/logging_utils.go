// Package utils provides utility functions to support various operations
// within the application.
package utils

import (
	"context"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GenerateTraceId returns a fresh trace id for a request.
func GenerateTraceId() string {
	return uuid.New().String()
}

func serviceName() string {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "contacts-server"
	}
	return service
}

func logEntry(entry *log.Entry, level, message string) {
	switch level {
	case "debug":
		entry.Debug(message)
	case "info":
		entry.Info(message)
	case "warn":
		entry.Warn(message)
	case "error":
		entry.Error(message)
	case "fatal":
		entry.Fatal(message)
	default:
		entry.Info(message)
	}
}

// LogMessage logs a message outside a request context.
func LogMessage(level, message string) {
	entry := log.WithFields(log.Fields{
		"service": serviceName(),
	})

	logEntry(entry, level, message)
}

// LogMessageWithFields logs a message enriched with the request's trace id.
func LogMessageWithFields(ctx context.Context, level, message string) {
	entry := log.WithFields(log.Fields{
		"traceId": traceIdFromContext(ctx),
		"service": serviceName(),
	})

	logEntry(entry, level, message)
}

// LogMessageWithFieldsAndError logs a message with the trace id and the error.
func LogMessageWithFieldsAndError(ctx context.Context, level, message string, err error) {
	entry := log.WithFields(log.Fields{
		"traceId": traceIdFromContext(ctx),
		"service": serviceName(),
		"error":   err,
	})

	logEntry(entry, level, message)
}

func traceIdFromContext(ctx context.Context) string {
	if traceId, ok := ctx.Value(TraceIdKey.String()).(string); ok {
		return traceId
	}
	return ""
}
