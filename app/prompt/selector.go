package prompt

import (
	"fmt"
	"strings"
)

// SettingsReader is the slice of the settings store the selector needs.
type SettingsReader interface {
	PromptTemplate(kind string) string
}

// Selector picks a generation template for a content kind, preferring an
// operator-customized template over the compiled-in default.
type Selector struct {
	settings SettingsReader
}

func NewSelector(settings SettingsReader) *Selector {
	return &Selector{settings: settings}
}

// GetPrompt returns the final prompt for a content kind with the
// [matched_content] and [original_title] placeholders substituted.
func (s *Selector) GetPrompt(kind string, title, url, body string) string {
	template := s.settings.PromptTemplate(kind)
	if template == "" {
		template = defaultTemplate(kind)
	}

	matched := fmt.Sprintf("Title: %s\nURL: %s\nContent:\n%s", title, url, body)

	prompt := strings.ReplaceAll(template, "[matched_content]", matched)
	prompt = strings.ReplaceAll(prompt, "[original_title]", title)
	return prompt
}

func defaultTemplate(kind string) string {
	if kind == KindBlogPost {
		return blogPostTemplate + fmt.Sprintf(jsonContract, "blog post subject")
	}

	guidance, ok := kindGuidance[kind]
	if !ok {
		// Unrecognized kind: structural validation and extraction only.
		return genericTemplate + fmt.Sprintf(jsonContract, "piece of content")
	}

	preamble := fmt.Sprintf(opportunityPreamble, strings.ReplaceAll(kind, "_", " "))
	return preamble + guidance + "\n\n" + fmt.Sprintf(jsonContract, strings.ReplaceAll(kind, "_", " "))
}
