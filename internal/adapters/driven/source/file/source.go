// Package file provides a message source backed by a local JSON corpus,
// for offline use and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.MessageSource = (*Source)(nil)

// Source reads raw messages from a JSON file. The file holds either a
// bare array of messages or an object with an "items" field, matching the
// upstream page envelope.
type Source struct {
	path string
}

// NewSource creates a file-backed message source.
func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("file source: path is required")
	}
	return &Source{path: path}, nil
}

// Path returns the corpus file path, for watchers.
func (s *Source) Path() string {
	return s.path
}

// Fetch reads and decodes the full corpus file.
func (s *Source) Fetch(_ context.Context) (*domain.RawBatch, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	messages, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode corpus file %s: %w", s.path, err)
	}

	return &domain.RawBatch{
		Messages:  messages,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func decode(data []byte) ([]domain.RawMessage, error) {
	var messages []domain.RawMessage
	if err := json.Unmarshal(data, &messages); err == nil {
		return messages, nil
	}

	var envelope struct {
		Items []domain.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}
