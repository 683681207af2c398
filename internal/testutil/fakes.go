// Package testutil provides in-memory stand-ins for the external services
// the application talks to.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/markdave123-py/AskNest/internal/models"
)

// ScriptedLLM returns a fixed reply (or error) and records prompts.
type ScriptedLLM struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Prompts []string
}

func (s *ScriptedLLM) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prompts = append(s.Prompts, systemPrompt+userPrompt)
	return s.Reply, s.Err
}

func (s *ScriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Prompts)
}

// ScriptedExtractor returns a fixed text (or error) for any input.
type ScriptedExtractor struct {
	mu    sync.Mutex
	Text  string
	Err   error
	calls int
}

func (s *ScriptedExtractor) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.Text, s.Err
}

func (s *ScriptedExtractor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// MemoryObjects is an in-memory object store.
type MemoryObjects struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{Objects: map[string][]byte{}}
}

func (m *MemoryObjects) UploadFile(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Objects[key] = data
	return "https://objects.test/" + key, nil
}

func (m *MemoryObjects) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	return nil
}

// MemoryRecorder keeps the latest state of every ingestion run.
type MemoryRecorder struct {
	mu   sync.Mutex
	Runs map[string]models.IngestionRun
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{Runs: map[string]models.IngestionRun{}}
}

func (m *MemoryRecorder) StartRun(_ context.Context, run *models.IngestionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Runs[run.ID]; ok {
		return fmt.Errorf("run %s already started", run.ID)
	}
	m.Runs[run.ID] = *run
	return nil
}

func (m *MemoryRecorder) UpdateRun(_ context.Context, run *models.IngestionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs[run.ID] = *run
	return nil
}

// Only returns the single recorded run, or false when there is not exactly one.
func (m *MemoryRecorder) Only() (models.IngestionRun, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Runs) != 1 {
		return models.IngestionRun{}, false
	}
	for _, r := range m.Runs {
		return r, true
	}
	return models.IngestionRun{}, false
}
