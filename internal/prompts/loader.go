// Package prompts holds the reasoning-service prompt templates. Each embedded
// JSON file maps prompt names to text with {{.Key}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Key addresses one prompt inside one file.
type Key struct {
	File string
	Name string
}

func (k Key) String() string { return k.File + "/" + k.Name }

// RateResponse asks for a 0-100 rating of one interview answer.
var RateResponse = Key{File: "scoring.json", Name: "rate-response"}

var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z0-9_]+)\}\}`)

var loadCatalog = sync.OnceValues(func() (map[Key]string, error) {
	return readCatalog(promptFiles)
})

func readCatalog(fsys fs.FS) (map[Key]string, error) {
	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	catalog := make(map[Key]string)
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read prompt file %s: %w", file, err)
		}
		var entries map[string]string
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse prompt file %s: %w", file, err)
		}
		for name, text := range entries {
			catalog[Key{File: file, Name: name}] = text
		}
	}
	return catalog, nil
}

// Text returns the unfilled template for k.
func Text(k Key) (string, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return "", err
	}
	text, ok := catalog[k]
	if !ok {
		return "", fmt.Errorf("prompt %s not found", k)
	}
	return text, nil
}

// Placeholders returns the distinct placeholder names in text, sorted.
func Placeholders(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Render fills the template for k. Every placeholder must have a value.
func Render(k Key, data map[string]string) (string, error) {
	text, err := Text(k)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, name := range Placeholders(text) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s: missing values for %s", k, strings.Join(missing, ", "))
	}

	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		return data[placeholderRe.FindStringSubmatch(match)[1]]
	}), nil
}
