// Package vocab models the practice hub's vocabulary and sentence documents
// and extracts the set of texts that need audio.
//
// Entries are kept as raw JSON objects rather than rigid structs: student
// repositories attach extra fields (translations, hints, grouping tags) that
// must survive aggregation untouched. Typed accessors cover the handful of
// fields the pipeline itself reads.
package vocab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Item is one vocabulary entry with all source fields preserved.
type Item map[string]any

// Str returns the string value for key, or "" when absent or not a string.
func (it Item) Str(key string) string {
	if v, ok := it[key].(string); ok {
		return v
	}
	return ""
}

// Child returns the nested object for key, or nil when absent.
func (it Item) Child(key string) Item {
	if v, ok := it[key].(map[string]any); ok {
		return Item(v)
	}
	return nil
}

// Strings returns the string slice for key, skipping non-string elements.
func (it Item) Strings(key string) []string {
	raw, ok := it[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Action holds the sentence-builder section of a vocabulary document.
// Slice fields stay un-omitted so an aggregated document always carries
// every section key, empty or not.
type Action struct {
	Subjects []Item `json:"subjects"`
	Times    []Item `json:"times"`
	Places   []Item `json:"places"`
	Objects  []Item `json:"objects"`
	Verbs    []Item `json:"verbs"`
}

// Describe holds the description-practice section.
type Describe struct {
	Subjects   []Item `json:"subjects"`
	Adjectives []Item `json:"adjectives"`
	Adverbs    []Item `json:"adverbs"`
}

// Category is a named flashcard group.
type Category struct {
	Name  string `json:"name"`
	Cards []Item `json:"cards"`
}

// Flashcards holds the flashcard section.
type Flashcards struct {
	Categories []Category `json:"categories"`
}

// Intro holds the self-introduction section.
type Intro struct {
	Topics []Item `json:"topics"`
	Nouns  []Item `json:"nouns"`
}

// Quiz holds the situation-quiz section.
type Quiz struct {
	Situations []Item `json:"situations"`
}

// Document is a parsed vocab.json.
type Document struct {
	Student    string      `json:"student,omitempty"`
	Action     *Action     `json:"action,omitempty"`
	Describe   *Describe   `json:"describe,omitempty"`
	Flashcards *Flashcards `json:"flashcards,omitempty"`
	Intro      *Intro      `json:"intro,omitempty"`
	Quiz       *Quiz       `json:"quiz,omitempty"`
}

// Chapter groups practice sentences.
type Chapter struct {
	Sentences []Item `json:"sentences,omitempty"`
}

// Sentences is a parsed sentences.json.
type Sentences struct {
	Chapters []Chapter `json:"chapters,omitempty"`
}

// ParseDocument decodes a vocabulary document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	return &doc, nil
}

// EncodeDocument renders a document as two-space-indented JSON, non-ASCII
// text left raw, no trailing newline. Key order inside items follows
// Go's sorted map order, so the same inputs always encode identically.
func EncodeDocument(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode vocabulary: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// LoadDocument reads and decodes the vocabulary document at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseDocument(data)
}

// LoadSentences reads and decodes the sentences document at path. A missing
// file is not an error; sentence audio is optional.
func LoadSentences(path string) (*Sentences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sentences: %w", err)
	}
	var s Sentences
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse sentences: %w", err)
	}
	return &s, nil
}
