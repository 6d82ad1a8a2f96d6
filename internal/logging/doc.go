// Package logging builds the operational slog logger and the protocol event
// logger used by the walletlink commands.
package logging
