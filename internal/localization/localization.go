package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strconv"
)

//go:embed locales
var Files embed.FS

type Localizer struct {
	messages map[string]map[string]string
}

func NewLocalizer(dir fs.FS) (*Localizer, error) {
	messages := make(map[string]map[string]string)

	files, err := fs.ReadDir(dir, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales directory: %w", err)
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) == ".json" {
			lang := file.Name()[:len(file.Name())-len(".json")]
			content, err := fs.ReadFile(dir, filepath.Join("locales", file.Name()))
			if err != nil {
				log.Printf("Failed to read locale file %s: %v", file.Name(), err)
				continue
			}

			var langMessages map[string]string
			if err := json.Unmarshal(content, &langMessages); err != nil {
				log.Printf("Failed to parse locale file %s: %v", file.Name(), err)
				continue
			}
			messages[lang] = langMessages
			log.Printf("Loaded language: %s", lang)
		}
	}

	return &Localizer{messages: messages}, nil
}

func (l *Localizer) lookup(lang, key string) (string, bool) {
	if langMessages, ok := l.messages[lang]; ok {
		if message, ok := langMessages[key]; ok {
			return message, true
		}
	}

	if defaultMessages, ok := l.messages["en"]; ok {
		if message, ok := defaultMessages[key]; ok {
			return message, true
		}
	}

	return "", false
}

func (l *Localizer) GetMessage(lang, key string) string {
	if message, ok := l.lookup(lang, key); ok {
		return message
	}
	return key
}

func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetMessage(lang, key), args...)
}

// Ordinal renders a stage number as a word ("الأولى") when the locale has one, digits otherwise.
// Only the requested language is consulted; an English word must not leak into another locale.
func (l *Localizer) Ordinal(lang string, n int) string {
	if langMessages, ok := l.messages[lang]; ok {
		if word, ok := langMessages["ordinal_"+strconv.Itoa(n)]; ok {
			return word
		}
	}
	return strconv.Itoa(n)
}
