// Package logx configures autolink's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller) on stderr
//   - File output JSON-structured
//   - Sinks hot-swappable on config reload without replacing Logger values
package logx
