package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bookline/booking-platform/pkg/logging"
)

//go:embed locales/*.json
var localeFS embed.FS

// Table resolves message keys per language, falling back to a default
// language and rendering unresolved keys as a bracketed placeholder.
type Table struct {
	defaultLanguage string
	messages        map[string]map[string]string
	logger          *logging.Logger
}

// Load parses every embedded locale file. The default language must be
// among them.
func Load(defaultLanguage string, logger *logging.Logger) (*Table, error) {
	if logger == nil {
		logger = logging.Default()
	}
	defaultLanguage = normalize(defaultLanguage)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("localization: read locales: %w", err)
	}

	messages := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		lang := normalize(strings.TrimSuffix(entry.Name(), ".json"))
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("localization: read locale %s: %w", entry.Name(), err)
		}
		table := make(map[string]string)
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("localization: parse locale %s: %w", entry.Name(), err)
		}
		messages[lang] = table
	}

	if _, ok := messages[defaultLanguage]; !ok {
		return nil, fmt.Errorf("localization: default language %q has no locale file", defaultLanguage)
	}
	return &Table{defaultLanguage: defaultLanguage, messages: messages, logger: logger}, nil
}

// Get resolves a key for the language, formatting args into the template.
// Unknown languages fall back to the default; unknown keys render as "[key]"
// rather than failing the caller.
func (t *Table) Get(language, key string, args ...any) string {
	template, ok := t.lookup(normalize(language), key)
	if !ok {
		t.logger.Warn("unresolved localization key", "language", language, "key", key)
		return "[" + key + "]"
	}
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}

// Languages lists the loaded locales.
func (t *Table) Languages() []string {
	langs := make([]string, 0, len(t.messages))
	for lang := range t.messages {
		langs = append(langs, lang)
	}
	return langs
}

func (t *Table) lookup(language, key string) (string, bool) {
	if table, ok := t.messages[language]; ok {
		if msg, ok := table[key]; ok {
			return msg, true
		}
	}
	if language != t.defaultLanguage {
		if msg, ok := t.messages[t.defaultLanguage][key]; ok {
			return msg, true
		}
	}
	return "", false
}

func normalize(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
