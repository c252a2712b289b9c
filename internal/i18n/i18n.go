// Package i18n is the localized string table for user-visible text. It is a
// pure lookup: no global state, no fallback chains beyond the default
// language.
package i18n

import (
	"fmt"
	"strings"
)

type Language string

const (
	German  Language = "de"
	French  Language = "fr"
	Italian Language = "it"
	English Language = "en"
)

const DefaultLanguage = German

// Key names one translatable string.
type Key string

const (
	KeyErrorTitle         Key = "identify.alerts.errorTitle"
	KeyUnknownPickerError Key = "identify.alerts.unknownPickerError"
	KeyNoPermissionTitle  Key = "identify.alerts.noPermissionTitle"
	KeyNoPermissionBody   Key = "identify.alerts.noPermissionBody"
	KeyLimitTitle         Key = "identify.alerts.limitTitle"
	KeyLimitBody          Key = "identify.alerts.limitBody"
	KeyMissingAPIURL      Key = "identify.alerts.missingApiUrl"
	KeyRequestFailed      Key = "identify.alerts.requestFailed"
	KeySelectedCounter    Key = "identify.counters.selected"
	KeySavedCounter       Key = "identify.counters.saved"
	KeyResultsHeader      Key = "identify.results.header"
	KeyResultsEmpty       Key = "identify.results.empty"
)

// Func is the translation function the pipeline consumes.
type Func func(key Key, vars map[string]any) string

// IsLanguage reports whether value names a supported language.
func IsLanguage(value string) bool {
	switch Language(value) {
	case German, French, Italian, English:
		return true
	}
	return false
}

// Translate resolves key in the given language, substituting {name}
// placeholders from vars. Unknown keys come back as the key itself so a
// missing entry shows up in the UI instead of crashing.
func Translate(lang Language, key Key, vars map[string]any) string {
	table, ok := translations[lang]
	if !ok {
		table = translations[DefaultLanguage]
	}
	text, ok := table[key]
	if !ok {
		return string(key)
	}
	for name, value := range vars {
		text = strings.ReplaceAll(text, "{"+name+"}", fmt.Sprint(value))
	}
	return text
}

// Bind fixes the language, yielding the injectable translation function.
func Bind(lang Language) Func {
	return func(key Key, vars map[string]any) string {
		return Translate(lang, key, vars)
	}
}

var translations = map[Language]map[Key]string{
	German: {
		KeyErrorTitle:         "Fehler",
		KeyUnknownPickerError: "Unbekannter Fehler bei der Bildauswahl.",
		KeyNoPermissionTitle:  "Keine Berechtigung",
		KeyNoPermissionBody:   "Ohne Galerie-Berechtigung kann das Bild nicht im Album gespeichert werden.",
		KeyLimitTitle:         "Limit erreicht",
		KeyLimitBody:          "Es können höchstens {max} Bilder ausgewählt werden.",
		KeyMissingAPIURL:      "Es ist keine Bestimmungs-API konfiguriert.",
		KeyRequestFailed:      "Die Anfrage ist fehlgeschlagen.",
		KeySelectedCounter:    "Ausgewählt: {count}",
		KeySavedCounter:       "Gespeichert: {count}",
		KeyResultsHeader:      "Ergebnisse",
		KeyResultsEmpty:       "Keine Ergebnisse",
	},
	French: {
		KeyErrorTitle:         "Erreur",
		KeyUnknownPickerError: "Erreur inconnue lors de la sélection de l'image.",
		KeyNoPermissionTitle:  "Aucune autorisation",
		KeyNoPermissionBody:   "Sans autorisation de la galerie, l'image ne peut pas être enregistrée dans l'album.",
		KeyLimitTitle:         "Limite atteinte",
		KeyLimitBody:          "Un maximum de {max} images peut être sélectionné.",
		KeyMissingAPIURL:      "Aucune API d'identification n'est configurée.",
		KeyRequestFailed:      "La requête a échoué.",
		KeySelectedCounter:    "Sélectionnées : {count}",
		KeySavedCounter:       "Enregistrées : {count}",
		KeyResultsHeader:      "Résultats",
		KeyResultsEmpty:       "Aucun résultat",
	},
	Italian: {
		KeyErrorTitle:         "Errore",
		KeyUnknownPickerError: "Errore sconosciuto durante la selezione dell'immagine.",
		KeyNoPermissionTitle:  "Nessuna autorizzazione",
		KeyNoPermissionBody:   "Senza autorizzazione alla galleria l'immagine non può essere salvata nell'album.",
		KeyLimitTitle:         "Limite raggiunto",
		KeyLimitBody:          "È possibile selezionare al massimo {max} immagini.",
		KeyMissingAPIURL:      "Nessuna API di identificazione configurata.",
		KeyRequestFailed:      "La richiesta non è riuscita.",
		KeySelectedCounter:    "Selezionate: {count}",
		KeySavedCounter:       "Salvate: {count}",
		KeyResultsHeader:      "Risultati",
		KeyResultsEmpty:       "Nessun risultato",
	},
	English: {
		KeyErrorTitle:         "Error",
		KeyUnknownPickerError: "Unknown error while picking the image.",
		KeyNoPermissionTitle:  "No permission",
		KeyNoPermissionBody:   "Without gallery permission the image cannot be saved to the album.",
		KeyLimitTitle:         "Limit reached",
		KeyLimitBody:          "At most {max} images can be selected.",
		KeyMissingAPIURL:      "No identification API is configured.",
		KeyRequestFailed:      "The request failed.",
		KeySelectedCounter:    "Selected: {count}",
		KeySavedCounter:       "Saved: {count}",
		KeyResultsHeader:      "Results",
		KeyResultsEmpty:       "No results",
	},
}
