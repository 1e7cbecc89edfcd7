// Package mcp provides a Model Context Protocol server adapter so AI
// assistants can question the member-message corpus and read its quality
// report.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
