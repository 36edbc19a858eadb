// Package logging provides structured logging for Tunnels.
//
// This package wraps Go's standard log/slog package so that the renderer
// and the control process emit the same JSON (or text) records with
// service and version fields attached.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("subscribed", "addr", cfg.TransportAddr())
//	logger.Warn("dropping frame", "error", err)
package logging
