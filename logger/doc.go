// Package logger provides structured logging for svckit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("health")
//	log.Info("probe finished", logger.Fields("service_id", id))
package logger
