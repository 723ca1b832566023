// Package questionbank loads interview questions from a YAML or JSON file
// and picks questions for a topic.
package questionbank

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDifficulty is assigned to questions without one.
const DefaultDifficulty = 5

// Question is one bank entry.
type Question struct {
	ID                 string `yaml:"id" json:"id"`
	Text               string `yaml:"text" json:"text"`
	Domain             string `yaml:"domain" json:"domain"`
	Difficulty         int    `yaml:"difficulty" json:"difficulty"`
	IdealAnswerSnippet string `yaml:"ideal_answer_snippet" json:"ideal_answer_snippet"`
	RubricID           string `yaml:"rubric_id" json:"rubric_id"`
}

// File is the on-disk layout.
type File struct {
	Questions []Question `yaml:"questions" json:"questions"`
}

// Bank is an immutable, indexed set of questions.
type Bank struct {
	questions []Question
	byID      map[string]int
	byDomain  map[string][]int
}

// Load reads a bank from path. Files ending in .json are decoded as JSON,
// everything else as YAML. A JSON file may also hold a bare array.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML bank.
func ParseYAML(data []byte) (*Bank, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	return New(f.Questions)
}

// ParseJSON decodes a JSON bank.
func ParseJSON(data []byte) (*Bank, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		var list []Question
		if listErr := json.Unmarshal(data, &list); listErr != nil {
			return nil, fmt.Errorf("failed to parse question bank: %w", err)
		}
		f.Questions = list
	}
	return New(f.Questions)
}

// New indexes questions. Missing ids are derived from the question text,
// domains are lowercased and ids of the form q-<topic>-<n> extend the domain
// with the topic ("backend" becomes "backend-caching"). Empty texts and
// duplicate ids are rejected.
func New(questions []Question) (*Bank, error) {
	b := &Bank{
		byID:     make(map[string]int, len(questions)),
		byDomain: make(map[string][]int),
	}
	for i, q := range questions {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return nil, fmt.Errorf("question %d has no text", i)
		}
		q.Domain = normalizeDomain(q.Domain, q.ID)
		if q.ID == "" {
			q.ID = TextID(q.Text)
		}
		if q.Difficulty == 0 {
			q.Difficulty = DefaultDifficulty
		}
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		b.byID[q.ID] = len(b.questions)
		b.byDomain[q.Domain] = append(b.byDomain[q.Domain], len(b.questions))
		b.questions = append(b.questions, q)
	}
	return b, nil
}

// TextID is the id given to a question without one.
func TextID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func normalizeDomain(domain, id string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if strings.HasPrefix(id, "q-") && strings.Count(id, "-") >= 2 {
		parts := strings.Split(id, "-")
		if topic := strings.Join(parts[1:len(parts)-1], "-"); topic != "" && domain != "" {
			return domain + "-" + strings.ToLower(topic)
		}
	}
	return domain
}

// Len returns the number of questions.
func (b *Bank) Len() int { return len(b.questions) }

// Domains returns the known domains, sorted.
func (b *Bank) Domains() []string {
	out := make([]string, 0, len(b.byDomain))
	for d := range b.byDomain {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Get returns the question with the given id.
func (b *Bank) Get(id string) (Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[i], true
}

// Pick returns the question for topic whose difficulty is closest to
// target, skipping ids in exclude. A topic matches its own domain and every
// sub-domain ("backend" matches "backend-caching"). Ties go to the question
// listed first.
func (b *Bank) Pick(topic string, target int, exclude map[string]bool) (Question, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	best := -1
	bestDistance := 0
	for _, domain := range b.Domains() {
		if domain != topic && !strings.HasPrefix(domain, topic+"-") {
			continue
		}
		for _, i := range b.byDomain[domain] {
			q := b.questions[i]
			if exclude[q.ID] {
				continue
			}
			d := q.Difficulty - target
			if d < 0 {
				d = -d
			}
			if best < 0 || d < bestDistance || (d == bestDistance && i < best) {
				best, bestDistance = i, d
			}
		}
	}
	if best < 0 {
		return Question{}, false
	}
	return b.questions[best], true
}
