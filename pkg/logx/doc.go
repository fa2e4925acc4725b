// Package logx configures vorhof's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Level and sinks swappable at runtime (config hot reload)
//
// Visitor lines are not log records; they are written by internal/display.
package logx
