// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package i18n provides internationalization and localization support for Claudius.
// It uses the go-i18n library to load and manage translation files, allowing the
// user interface and CLI messages to be displayed in multiple languages.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

// localeFS embeds the YAML translation files from the 'locales' directory
// into the application binary.
//
//go:embed locales/*.yaml
var localeFS embed.FS

var (
	mu        sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	current   string
)

// Init initializes the i18n bundle and sets up the localizer for a specific language.
// It parses all embedded YAML files from the 'locales' directory.
func Init(lang string) {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			continue
		}
		_, _ = b.ParseMessageFileBytes(data, f.Name())
	}

	mu.Lock()
	defer mu.Unlock()
	bundle = b
	localizer = i18n.NewLocalizer(b, lang)
	current = lang
}

// T translates a message by its ID. Extra arguments are applied with
// fmt.Sprintf to the translated template. If the i18n system has not been
// initialized, English is used. Unknown IDs are returned unchanged.
func T(messageID string, args ...any) string {
	mu.RLock()
	loc := localizer
	mu.RUnlock()
	if loc == nil {
		Init("en")
		mu.RLock()
		loc = localizer
		mu.RUnlock()
	}

	msg, err := loc.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		// go-i18n reports a missing message as an error; fall back to the ID.
		msg = messageID
	}
	if len(args) > 0 && strings.Contains(msg, "%") {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// SetLang changes the active language of the localizer.
func SetLang(lang string) {
	Init(lang)
}

// GetLang returns the active language code.
func GetLang() string {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// GetAvailableLocales returns the embedded locales mapped to their display
// name in their own language.
func GetAvailableLocales() map[string]string {
	out := make(map[string]string)
	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		code := strings.TrimSuffix(f.Name(), ".yaml")
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		name := display.Self.Name(tag)
		if name == "" {
			name = code
		}
		out[code] = name
	}
	return out
}
