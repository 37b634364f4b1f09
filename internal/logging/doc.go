// Package logging provides concrete implementations of the usaccidents.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: zap console encoder on stderr, colored levels on a terminal
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
