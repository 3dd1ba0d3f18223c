package party

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/mgerste/blamewheel/internal/ai"
)

// Question is one content item: a stable identity, displayable text and
// optional category metadata. Immutable once loaded.
type Question struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

// Source delivers the question pool during module bootstrap.
type Source interface {
	Load(ctx context.Context) ([]Question, error)
}

// FileSource reads a JSON array of questions. An empty path falls back to the
// embedded default pool.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) ([]Question, error) {
	data := defaultPool
	if s.Path != "" {
		b, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("read question pool: %w", err)
		}
		data = b
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse question pool: %w", err)
	}
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
	}
	return questions, nil
}

// AISource generates a fresh pool through an AI provider. Generation is
// all-or-nothing: any provider failure fails the whole load.
type AISource struct {
	Provider     ai.Provider
	Model        string
	SystemPrompt string
	Count        int
}

func (s AISource) Load(ctx context.Context) ([]Question, error) {
	count := s.Count
	if count <= 0 {
		count = 20
	}
	prompt := fmt.Sprintf(
		"Write %d party game questions of the form \"Who in this group is most likely to ...?\". "+
			"One question per line, no numbering, no quotes.", count)

	var text string
	var err error
	if s.SystemPrompt != "" {
		text, err = s.Provider.CompleteWithSystem(ctx, s.Model, s.SystemPrompt, prompt)
	} else {
		text, err = s.Provider.Complete(ctx, s.Model, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	var questions []Question
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line == "" {
			continue
		}
		questions = append(questions, Question{ID: uuid.NewString(), Text: line, Category: "generated"})
	}
	if len(questions) == 0 {
		return nil, errors.New("provider returned no usable questions")
	}
	return questions, nil
}
