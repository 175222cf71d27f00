package ai

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MRamiBalles/DrillCore/internal/narrative"
)

// NarratorSystemPrompt frames the model as the rig's onboard voice.
const NarratorSystemPrompt = `You are the onboard log of a deep drilling rig.
Write ONE short line (max 140 characters) of atmospheric flavour text for the operator.
Rules:
- Present tense, second or third person, no emojis, no quotes.
- Never invent numbers; only use the ones given.
- Never give instructions or mention game mechanics.
- If the operator is away, speak to the empty cabin.`

// maxLineRunes bounds what reaches the log.
const maxLineRunes = 160

// BuildContextPrompt renders the post-tick context for the model.
func BuildContextPrompt(c narrative.Context) string {
	var sb strings.Builder
	sb.WriteString("## RIG STATUS\n\n")
	fmt.Fprintf(&sb, "- Biome: %s\n", c.Biome)
	fmt.Fprintf(&sb, "- Depth: %.0f m\n", c.Depth)
	fmt.Fprintf(&sb, "- Core heat: %.0f%%\n", c.Heat)
	if c.MaxIntegrity > 0 {
		fmt.Fprintf(&sb, "- Hull: %.0f%%\n", 100*c.Integrity/c.MaxIntegrity)
	}
	if c.BossName != "" {
		fmt.Fprintf(&sb, "- Hostile engaged: %s\n", c.BossName)
	}
	if c.Reason == narrative.ReasonAFK {
		fmt.Fprintf(&sb, "- Operator away for %.0f seconds\n", c.AFKSeconds)
	}
	sb.WriteString("\n## TASK\n\nWrite the next log line.\n")
	return sb.String()
}

// ValidateLine cleans a model reply and rejects unusable ones.
func ValidateLine(raw string) (string, error) {
	line := strings.TrimSpace(raw)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.Trim(line, `"'`)
	if line == "" {
		return "", errors.New("empty narration")
	}
	if utf8.RuneCountInString(line) > maxLineRunes {
		r := []rune(line)
		line = string(r[:maxLineRunes-1]) + "…"
	}
	return line, nil
}
