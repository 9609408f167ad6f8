package i18n_test

import (
	"testing"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/i18n"
)

func newTranslator() *i18n.Translator {
	translator := i18n.New("ru")
	translator.LoadTranslations("ru", map[string]string{
		"greeting":  "Привет, {name}!",
		"only_ru":   "Только по-русски",
		"city_gone": "Город {city} не найден",
	})
	translator.LoadTranslations("en", map[string]string{
		"greeting": "Hello, {name}!",
	})
	return translator
}

func TestTranslation(t *testing.T) {
	translator := newTranslator()

	t.Run("DirectHit", func(t *testing.T) {
		if got := translator.T("en", "greeting", "name", "Anna"); got != "Hello, Anna!" {
			t.Errorf("Unexpected translation %q", got)
		}
	})

	t.Run("CaseInsensitiveLanguage", func(t *testing.T) {
		if got := translator.T("EN", "greeting", "name", "Anna"); got != "Hello, Anna!" {
			t.Errorf("Unexpected translation %q", got)
		}
	})

	t.Run("KeyFallsBackToDefaultLanguage", func(t *testing.T) {
		if got := translator.T("en", "only_ru"); got != "Только по-русски" {
			t.Errorf("Unexpected fallback %q", got)
		}
	})

	t.Run("UnknownLanguageFallsBack", func(t *testing.T) {
		if got := translator.T("fr", "greeting", "name", "Anna"); got != "Привет, Anna!" {
			t.Errorf("Unexpected fallback %q", got)
		}
	})

	t.Run("UnknownKeyReturnsKey", func(t *testing.T) {
		if got := translator.T("ru", "no_such_key"); got != "no_such_key" {
			t.Errorf("Unexpected result %q", got)
		}
	})

	t.Run("MultiplePlaceholders", func(t *testing.T) {
		got := translator.T("ru", "city_gone", "city", "Атлантида")
		if got != "Город Атлантида не найден" {
			t.Errorf("Unexpected translation %q", got)
		}
	})
}

func TestConfigGatesLanguages(t *testing.T) {
	cfg := config.New()
	cfg.Language.DefaultLanguage = "en"
	cfg.Language.Enabled = []string{"en", "ru"}

	translator := i18n.NewWithConfig(cfg)
	translator.LoadTranslations("en", map[string]string{"hello": "Hello"})
	translator.LoadTranslations("ru", map[string]string{"hello": "Привет"})
	// Not enabled, must be ignored.
	translator.LoadTranslations("de", map[string]string{"hello": "Hallo"})

	if got := translator.T("de", "hello"); got != "Hello" {
		t.Errorf("Disabled language should fall back, got %q", got)
	}

	langs := translator.GetAvailableLanguages()
	if len(langs) != 2 {
		t.Errorf("Expected 2 available languages, got %v", langs)
	}
}

func TestDetectLanguage(t *testing.T) {
	cfg := config.New()
	translator := i18n.NewWithConfig(cfg)
	i18n.LoadDefaultTranslations(translator)

	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{"Empty", "", "ru"},
		{"Plain", "de", "de"},
		{"Regional", "en-US", "en"},
		{"UpperCase", "RU", "ru"},
		{"Unsupported", "fr", "ru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translator.DetectLanguage(tt.code); got != tt.expected {
				t.Errorf("DetectLanguage(%q) = %q, expected %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestDefaultTranslationsCoverAllLanguages(t *testing.T) {
	cfg := config.New()
	translator := i18n.NewWithConfig(cfg)
	i18n.LoadDefaultTranslations(translator)
	i18n.LoadAdminTranslations(translator)

	keys := []string{
		"welcome", "weather_usage", "weather_error", "weather_quota_exceeded",
		"city_not_found", "home_saved", "home_not_set", "home_removed",
		"subscribed", "unsubscribed",
		"spam_blocked_message", "spam_too_fast", "spam_message_too_long",
		"admin_stats_title", "admin_quota_status",
	}
	for _, lang := range []string{"en", "ru", "de"} {
		for _, key := range keys {
			if got := translator.T(lang, key); got == key {
				t.Errorf("Missing translation for %s/%s", lang, key)
			}
		}
	}
}
