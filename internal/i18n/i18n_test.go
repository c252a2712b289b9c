package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		lang Language
		key  Key
		vars map[string]any
		want string
	}{
		{"german", German, KeyErrorTitle, nil, "Fehler"},
		{"french", French, KeyErrorTitle, nil, "Erreur"},
		{"italian", Italian, KeyErrorTitle, nil, "Errore"},
		{"english", English, KeyErrorTitle, nil, "Error"},
		{"substitution", English, KeyLimitBody, map[string]any{"max": 5}, "At most 5 images can be selected."},
		{"substitution german", German, KeyLimitBody, map[string]any{"max": 5}, "Es können höchstens 5 Bilder ausgewählt werden."},
		{"counter", English, KeySelectedCounter, map[string]any{"count": "3/5"}, "Selected: 3/5"},
		{"unknown language falls back", Language("pt"), KeyErrorTitle, nil, "Fehler"},
		{"unknown key echoes", English, Key("identify.alerts.nope"), nil, "identify.alerts.nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Translate(tt.lang, tt.key, tt.vars))
		})
	}
}

func TestBind(t *testing.T) {
	tr := Bind(Italian)
	assert.Equal(t, "Errore", tr(KeyErrorTitle, nil))
}

func TestIsLanguage(t *testing.T) {
	for _, lang := range []string{"de", "fr", "it", "en"} {
		assert.True(t, IsLanguage(lang), lang)
	}
	for _, lang := range []string{"", "DE", "pt", "german"} {
		assert.False(t, IsLanguage(lang), lang)
	}
}

func TestEveryLanguageCoversEveryKey(t *testing.T) {
	keys := []Key{
		KeyErrorTitle, KeyUnknownPickerError,
		KeyNoPermissionTitle, KeyNoPermissionBody,
		KeyLimitTitle, KeyLimitBody,
		KeyMissingAPIURL, KeyRequestFailed,
		KeySelectedCounter, KeySavedCounter,
		KeyResultsHeader, KeyResultsEmpty,
	}
	for lang, table := range translations {
		for _, key := range keys {
			assert.Contains(t, table, key, "language %s", lang)
		}
	}
}
