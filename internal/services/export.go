package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"study-ai/internal/models"
	"study-ai/internal/parser"
)

// ErrNotStructured is returned for artifacts that are free text, such as summaries.
var ErrNotStructured = errors.New("artifact has no structured records")

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ParseArtifact parses an artifact's text into its record slice.
func ParseArtifact(kind models.ArtifactKind, text string) (any, error) {
	switch kind {
	case models.ArtifactFlashcards:
		return parser.ParseFlashcards(text), nil
	case models.ArtifactQA:
		return parser.ParseQA(text), nil
	case models.ArtifactMCQ:
		return parser.ParseMCQ(text), nil
	case models.ArtifactFillBlanks:
		return parser.ParseFillBlanks(text), nil
	case models.ArtifactTrueFalse:
		return parser.ParseTrueFalse(text), nil
	default:
		return nil, fmt.Errorf("%s: %w", kind, ErrNotStructured)
	}
}

// CheckFormat reports whether format names a supported export encoding.
func CheckFormat(format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON, FormatYAML, "yml":
		return nil
	}
	return fmt.Errorf("unknown export format %q (want %s or %s)", format, FormatJSON, FormatYAML)
}

// Export writes the parsed records of an artifact as JSON or YAML.
func Export(w io.Writer, kind models.ArtifactKind, text, format string) error {
	if err := CheckFormat(format); err != nil {
		return err
	}
	records, err := ParseArtifact(kind, text)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush yaml: %w", err)
		}
	}
	return nil
}
