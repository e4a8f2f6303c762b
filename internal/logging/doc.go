// Package logging provides structured logging helpers built on log/slog.
//
// It defines the attribute-key vocabulary used across the codebase (tool,
// operation, model, calendar, status, error), small constructors for those
// attributes, and a Logger interface plus SlogAdapter so components can be
// tested with substitutable loggers.
//
// Calendar identifiers are email addresses; AnonymizeCalendarID hashes them
// before they reach log output.
package logging
