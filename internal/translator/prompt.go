package translator

import (
	"fmt"
	"strings"
)

// buildSystemPrompt constructs the system prompt shared by the LLM services,
// optionally appending user instructions.
func buildSystemPrompt(sourceLang, targetLang, instructions string) string {
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "the detected language"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are a professional literary translator. Translate the following text from %s to %s.\n", sourceLang, targetLang))
	sb.WriteString("Keep paragraph breaks and Markdown formatting as they are. ")
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, just the translation.")

	if instructions = strings.TrimSpace(instructions); instructions != "" {
		sb.WriteString("\n\n")
		sb.WriteString(instructions)
	}

	return sb.String()
}
