// Package i18n holds the UI string tables and the per-session active language.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed translations/*.yaml
var translationFiles embed.FS

// Table is one language's string table.
type Table struct {
	Language string
	tree     map[string]interface{}
	flat     map[string]string
	fallback *Table
}

// T returns the string at a dotted key ("toasts.saved.title"). Missing keys
// fall back to the default language, then to the key itself.
func (t *Table) T(key string) string {
	if s, ok := t.flat[key]; ok {
		return s
	}
	if t.fallback != nil {
		return t.fallback.T(key)
	}
	return key
}

// Has reports whether the key exists in this table (ignoring fallback)
func (t *Table) Has(key string) bool {
	_, ok := t.flat[key]
	return ok
}

// Tree returns the nested table as decoded from YAML, for clients that
// index it themselves.
func (t *Table) Tree() map[string]interface{} {
	return t.tree
}

// Store holds every shipped string table. It is read-only after construction.
type Store struct {
	tables          map[string]*Table
	defaultLanguage string
}

// NewStore loads the embedded translation files. defaultLanguage must be one
// of them and is the fallback for missing keys.
func NewStore(defaultLanguage string) (*Store, error) {
	entries, err := translationFiles.ReadDir("translations")
	if err != nil {
		return nil, fmt.Errorf("read translations: %w", err)
	}

	s := &Store{
		tables:          make(map[string]*Table),
		defaultLanguage: defaultLanguage,
	}

	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		table, err := loadTable(lang, "translations/"+entry.Name())
		if err != nil {
			return nil, err
		}
		s.tables[lang] = table
	}

	def, ok := s.tables[defaultLanguage]
	if !ok {
		return nil, fmt.Errorf("default language %q has no translation table", defaultLanguage)
	}
	for lang, table := range s.tables {
		if lang != defaultLanguage {
			table.fallback = def
		}
	}

	return s, nil
}

func loadTable(lang, filename string) (*Table, error) {
	data, err := translationFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	flat := make(map[string]string)
	flatten("", tree, flat)

	return &Table{Language: lang, tree: tree, flat: flat}, nil
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Table returns the table for lang
func (s *Store) Table(lang string) (*Table, error) {
	table, ok := s.tables[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return table, nil
}

// Default returns the default language table
func (s *Store) Default() *Table {
	return s.tables[s.defaultLanguage]
}

// DefaultLanguage returns the fallback language tag
func (s *Store) DefaultLanguage() string {
	return s.defaultLanguage
}

// Languages returns the supported language tags, sorted
func (s *Store) Languages() []string {
	langs := make([]string, 0, len(s.tables))
	for lang := range s.tables {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Active is the language selected by one user session.
type Active struct {
	mu    sync.RWMutex
	store *Store
	table *Table
}

// NewActive starts on lang, or the store default when lang is unsupported
func (s *Store) NewActive(lang string) *Active {
	table, err := s.Table(lang)
	if err != nil {
		table = s.Default()
	}
	return &Active{store: s, table: table}
}

// Get returns the active table
func (a *Active) Get() *Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table
}

// Set switches the active language
func (a *Active) Set(lang string) (*Table, error) {
	table, err := a.store.Table(lang)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.table = table
	a.mu.Unlock()
	return table, nil
}
