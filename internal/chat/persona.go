package chat

import (
	"fmt"
	"strings"
)

// Persona configures the system directive sent ahead of every
// conversation. Facts are immutable key=value directives attached at
// session start.
type Persona struct {
	Label    string
	Language string
	Facts    []string
}

const basePersona = "You are Monday, a helpful assistant."

var personaDirectives = map[string]string{
	"monday": basePersona + " Prefer Korean in replies and keep answers concise.",
	"test": "Only answer what the user explicitly asks; do not add anything extra. " +
		"If the user requests code modifications, always provide the entire updated code " +
		"in a fully working state, not just partial changes. " +
		"Keep answers direct, minimal, and focused only on the question.",
	"default": "You are a helpful assistant.",
}

// Directive renders the system prompt for this persona, folding in the
// session's fact set.
func (p Persona) Directive() string {
	d, ok := personaDirectives[p.Label]
	if !ok {
		d = personaDirectives["default"]
	}

	var b strings.Builder
	b.WriteString(d)
	if p.Language != "" && p.Label != "monday" {
		fmt.Fprintf(&b, " Prefer replying in %s.", languageName(p.Language))
	}
	if len(p.Facts) > 0 {
		b.WriteString("\n\nSession facts (key=value, treat as ground truth):")
		for _, f := range p.Facts {
			b.WriteString("\n- ")
			b.WriteString(f)
		}
	}
	return b.String()
}

// SummaryDirective is the instruction given to the model when folding
// hidden history into a rolling summary.
func SummaryDirective(lang string, maxChars int) string {
	return fmt.Sprintf(
		"Compress the conversation below into a factual summary in %s. "+
			"Keep only concrete facts, decisions, requirements, numbers and dates. "+
			"Discard greetings and chit-chat. Do not restate the conversation. "+
			"Stay within %d characters.",
		languageName(lang), maxChars)
}

func languageName(code string) string {
	switch code {
	case "ko", "kr", "":
		return "Korean"
	case "en":
		return "English"
	case "ja":
		return "Japanese"
	default:
		return code
	}
}
