// Package logger provides structured logging for bindkit using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with structured fields. The registry and the
// injection engine log through component loggers obtained with Get.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("bindkit.di")
//	log.Debug("member assigned", logger.Fields(logger.FieldMember, "Log"))
package logger
