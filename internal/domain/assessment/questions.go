// Package assessment runs the MLOps maturity questionnaire and scores it.
package assessment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/compass/pkg/errkind"
)

// Question is one multiple-choice item. Scores[i] is awarded for Options[i].
type Question struct {
	Text    string   `yaml:"question"`
	Options []string `yaml:"options"`
	Scores  []int    `yaml:"scores"`
}

// Dimension groups the questions for one maturity area.
type Dimension struct {
	Name      string
	Questions []Question
}

// QuestionSet is the full questionnaire in file order.
type QuestionSet struct {
	Dimensions []Dimension
}

// LoadQuestions reads a question set from a JSON or YAML file.
func LoadQuestions(path string) (*QuestionSet, error) {
	const op = "assessment.load_questions"
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errkind.Wrap(op, ErrQuestionsNotFound, fmt.Errorf("questions file not found at %s", path))
		}
		return nil, errkind.Wrap(op, ErrInvalidQuestions, err)
	}
	return ParseQuestions(raw)
}

// ParseQuestions decodes a mapping of dimension name to question list. JSON is
// accepted since it is valid YAML; mapping order is preserved.
func ParseQuestions(raw []byte) (*QuestionSet, error) {
	const op = "assessment.parse_questions"
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errkind.Wrap(op, ErrInvalidQuestions, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errkind.New(op, ErrInvalidQuestions)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errkind.Wrap(op, ErrInvalidQuestions, fmt.Errorf("top level must map dimension names to questions"))
	}

	qs := &QuestionSet{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var questions []Question
		if err := val.Decode(&questions); err != nil {
			return nil, errkind.Wrap(op, ErrInvalidQuestions, fmt.Errorf("dimension %q: %w", key.Value, err))
		}
		qs.Dimensions = append(qs.Dimensions, Dimension{Name: key.Value, Questions: questions})
	}
	if err := qs.Validate(); err != nil {
		return nil, err
	}
	return qs, nil
}

// Validate checks that every question has options with a score for each.
func (qs *QuestionSet) Validate() error {
	const op = "assessment.validate"
	for _, d := range qs.Dimensions {
		for i, q := range d.Questions {
			switch {
			case len(q.Options) == 0:
				return errkind.Wrap(op, ErrInvalidQuestions, fmt.Errorf("%s question %d has no options", d.Name, i+1))
			case len(q.Scores) != len(q.Options):
				return errkind.Wrap(op, ErrInvalidQuestions,
					fmt.Errorf("%s question %d has %d options but %d scores", d.Name, i+1, len(q.Options), len(q.Scores)))
			}
		}
	}
	return nil
}

// Count returns the total number of questions.
func (qs *QuestionSet) Count() int {
	n := 0
	for _, d := range qs.Dimensions {
		n += len(d.Questions)
	}
	return n
}
