package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxExcerptLength = 300

type generatedPayload struct {
	Valid           *bool    `json:"valid"`
	Reason          string   `json:"reason"`
	Title           string   `json:"title"`
	Excerpt         string   `json:"excerpt"`
	Content         string   `json:"content"`
	Deadline        string   `json:"deadline"`
	PrizeValue      string   `json:"prize_value"`
	Requirements    string   `json:"requirements"`
	Location        string   `json:"location"`
	ConfidenceScore *float64 `json:"confidence_score"`
}

// ParseGenerated turns raw model output into a Generated value. Markdown
// code fences are stripped and, when the text does not start with '{', the
// first top-level JSON object is extracted by brace matching.
func ParseGenerated(text string) (Generated, error) {
	cleaned := stripCodeFences(text)

	if !strings.HasPrefix(cleaned, "{") {
		extracted, ok := extractJSONObject(cleaned)
		if !ok {
			return nil, fmt.Errorf("no JSON object found in model output")
		}
		cleaned = extracted
	}

	var payload generatedPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse model output as JSON: %w", err)
	}

	if payload.Valid == nil {
		return nil, fmt.Errorf("model output is missing the valid field")
	}

	if !*payload.Valid {
		reason := strings.TrimSpace(payload.Reason)
		if reason == "" {
			reason = "content did not meet generation criteria"
		}
		return Rejected{Reason: reason}, nil
	}

	title := strings.TrimSpace(payload.Title)
	content := strings.TrimSpace(payload.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("valid output is missing title or content")
	}

	score := 1.0
	if payload.ConfidenceScore != nil {
		score = *payload.ConfidenceScore
	}

	return Accepted{
		Title:           title,
		Excerpt:         cleanExcerpt(payload.Excerpt),
		Content:         content,
		Deadline:        strings.TrimSpace(payload.Deadline),
		PrizeValue:      strings.TrimSpace(payload.PrizeValue),
		Requirements:    strings.TrimSpace(payload.Requirements),
		Location:        strings.TrimSpace(payload.Location),
		ConfidenceScore: score,
	}, nil
}

func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// extractJSONObject returns the first balanced top-level {...} span,
// respecting string literals and escapes.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}

	return "", false
}

func cleanExcerpt(excerpt string) string {
	excerpt = strings.Join(strings.Fields(excerpt), " ")
	if runes := []rune(excerpt); len(runes) > maxExcerptLength {
		excerpt = strings.TrimSpace(string(runes[:maxExcerptLength]))
	}
	return excerpt
}
