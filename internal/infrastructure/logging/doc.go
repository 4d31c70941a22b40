// Package logging provides structured logging for the Gree climate service.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "/var/log/graylogic/gree.log"
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("gree").Info("bridge started", "devices", 3)
//
// Never log secrets, tokens or passwords.
package logging
