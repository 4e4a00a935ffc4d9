package bot

import "strings"

const maxMessageLength = 4096

// splitMessage cuts text into chunks of at most limit bytes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var builder strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if builder.Len() > 0 {
				chunks = append(chunks, builder.String())
				builder.Reset()
			}
			cut := runeBoundary(line, limit)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if builder.Len()+len(line) > limit {
			chunks = append(chunks, builder.String())
			builder.Reset()
		}
		builder.WriteString(line)
	}
	if builder.Len() > 0 {
		chunks = append(chunks, builder.String())
	}
	return chunks
}

// runeBoundary backs off from limit so a UTF-8 sequence is never split.
func runeBoundary(s string, limit int) int {
	cut := limit
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return cut
}

func (b *TelegramBot) getLang() string {
	return b.cfg.DefaultLanguage
}
