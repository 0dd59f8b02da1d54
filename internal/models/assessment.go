// assessment.go
package models

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultQuestions []byte

// Question struct to match the YAML structure
type Question struct {
	ID       string   `yaml:"id" json:"id"`
	Text     string   `yaml:"text" json:"text"`
	Category string   `yaml:"category" json:"category"`
	Options  []Option `yaml:"options" json:"options"`
}

// Option struct for question choices
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value int    `yaml:"value" json:"value"`
}

// Assessment struct to hold all questions
type Assessment struct {
	Questions []Question `yaml:"questions" json:"questions"`
}

// LoadAssessment reads and parses a questions.yaml file. An empty path
// selects the built-in screening questions.
func LoadAssessment(path string) (*Assessment, error) {
	data := defaultQuestions
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read assessment file: %w", err)
		}
	}
	return ParseAssessment(data)
}

// ParseAssessment decodes and validates questionnaire YAML.
func ParseAssessment(data []byte) (*Assessment, error) {
	var assessment Assessment
	if err := yaml.Unmarshal(data, &assessment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment YAML: %w", err)
	}
	if err := assessment.validate(); err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (a *Assessment) validate() error {
	if len(a.Questions) == 0 {
		return fmt.Errorf("assessment has no questions")
	}
	seen := make(map[string]bool, len(a.Questions))
	for i, q := range a.Questions {
		if q.ID == "" {
			return fmt.Errorf("question %d has no id", i)
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if len(q.Options) == 0 {
			return fmt.Errorf("question %q has no options", q.ID)
		}
	}
	return nil
}

// Question returns the question with the given id.
func (a *Assessment) Question(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Option returns the option carrying value, if the question offers one.
func (q Question) Option(value int) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}
