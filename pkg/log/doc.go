// Package log provides structured protocol event logging for walletlink.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events: decoded wire messages and device watcher state
// changes. It is separate from operational logging (slog) - the protocol
// log is a machine-readable event trace for debugging and analysis.
//
// # Basic Usage
//
// Components accept a Logger in their configuration:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For capture: write to a binary file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/walletlink/listen.wlog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at two layers:
//   - Wire: decoded messages (MessageEvent)
//   - Discovery: device watcher state changes (StateChangeEvent)
//
// Errors at either layer have a dedicated event type.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .wlog extension.
// The walletlink-log CLI tool provides viewing, export and statistics.
package log
