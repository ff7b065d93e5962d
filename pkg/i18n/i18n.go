// Package i18n renders the core's error messages in the user's locale.
// QI_LANG selects the catalog (en/ja) and falls back to LANG, then to en.
package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	locale string
)

func init() {
	locale = detectLocale()
}

func detectLocale() string {
	for _, env := range []string{"QI_LANG", "LANG"} {
		v := strings.ToLower(os.Getenv(env))
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, "ja") {
			return "ja"
		}
		if strings.HasPrefix(v, "en") {
			return "en"
		}
	}
	return "en"
}

// SetLocale overrides the detected locale. Unknown locales fall back to en.
func SetLocale(l string) {
	mu.Lock()
	defer mu.Unlock()
	if l != "ja" {
		l = "en"
	}
	locale = l
}

// Locale reports the active locale.
func Locale() string {
	mu.RLock()
	defer mu.RUnlock()
	return locale
}

// Msg formats the catalog entry for key with args. Unknown keys render the
// key itself so a missing entry never hides an error.
func Msg(key string, args ...any) string {
	mu.RLock()
	l := locale
	mu.RUnlock()
	catalog := en
	if l == "ja" {
		catalog = ja
	}
	format, ok := catalog[key]
	if !ok {
		format, ok = en[key]
		if !ok {
			return key
		}
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
