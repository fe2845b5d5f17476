package llm

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the note-creation prompt for one chunk of source
// text. contextLabel, when present, tells the model where the text came
// from.
func BuildPrompt(content, contextLabel string) string {
	var b strings.Builder

	b.WriteString("# Note Creation Task\n\n")
	b.WriteString("You are an expert knowledge organizer. Analyze the text below and convert it into one or more well-structured markdown notes.\n\n")
	if contextLabel != "" {
		fmt.Fprintf(&b, "The content comes from a source named %q, which may hint at the topic.\n\n", contextLabel)
	}
	b.WriteString(`## Instructions

1. Identify distinct topics; each becomes a separate note with its own frontmatter.
2. Preserve all important information, code blocks, lists, and formatting.
3. Create meaningful titles without timestamps or date prefixes.
4. Generate 3-5 kebab-case tags per note (e.g. "project-management").
5. Choose exactly one category per note from this fixed list:
   Technology, Finance, Personal, Projects, Knowledge, Reference.
6. Link important concepts with [[wikilink]] syntax the first time they appear.

## Output Format

For each note emit:

---
title: "Clear Descriptive Title"
tags: ["primary-topic", "specific-concept"]
date: YYYY-MM-DD
category: CategoryName
---

## Clear Descriptive Title

[well-formatted content]

## Related Concepts
- [[Concept-One]] - relationship
- [[Concept-Two]] - relationship

## Content to Analyze

`)
	b.WriteString(content)
	b.WriteString("\n")
	return b.String()
}
