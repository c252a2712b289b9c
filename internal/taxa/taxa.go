// Package taxa is the static taxon reference dataset: per-id localized names
// and info URLs, embedded at build time and indexed lazily.
package taxa

import (
	"encoding/json"
	_ "embed"
	"strings"
	"sync"

	"github.com/7-mb/speciesid/internal/i18n"
)

//go:embed taxa.json
var rawTaxa []byte

// Taxon is one reference record. Field names follow the upstream dataset.
type Taxon struct {
	ID             int    `json:"ID"`
	ScientificName string `json:"Scientific_name,omitempty"`
	GermanName     string `json:"German_name,omitempty"`
	FrenchName     string `json:"French_name,omitempty"`
	ItalianName    string `json:"Italian_name,omitempty"`
	EnglishName    string `json:"English_name,omitempty"`
	GermanURL      string `json:"German_URL,omitempty"`
	FrenchURL      string `json:"French_URL,omitempty"`
	ItalianURL     string `json:"Italian_URL,omitempty"`
	EnglishURL     string `json:"English_URL,omitempty"`
}

var (
	once  sync.Once
	index map[int]Taxon
)

func ensureIndex() map[int]Taxon {
	once.Do(func() {
		var records []Taxon
		if err := json.Unmarshal(rawTaxa, &records); err != nil {
			// The dataset ships with the binary; a parse failure is a build
			// defect, not a runtime condition.
			panic("taxa: embedded dataset is invalid: " + err.Error())
		}
		index = make(map[int]Taxon, len(records))
		for _, record := range records {
			if record.ID != 0 {
				index[record.ID] = record
			}
		}
	})
	return index
}

// Lookup returns the taxon with the given id.
func Lookup(id int) (Taxon, bool) {
	taxon, ok := ensureIndex()[id]
	return taxon, ok
}

// LocalizedName returns the taxon's name in the given language, or "" when
// the dataset has none.
func LocalizedName(taxon Taxon, lang i18n.Language) string {
	switch lang {
	case i18n.German:
		return nonEmpty(taxon.GermanName)
	case i18n.French:
		return nonEmpty(taxon.FrenchName)
	case i18n.Italian:
		return nonEmpty(taxon.ItalianName)
	}
	return nonEmpty(taxon.EnglishName)
}

// LocalizedURL returns the taxon's info link in the given language, or ""
// when the dataset has none.
func LocalizedURL(taxon Taxon, lang i18n.Language) string {
	switch lang {
	case i18n.German:
		return nonEmpty(taxon.GermanURL)
	case i18n.French:
		return nonEmpty(taxon.FrenchURL)
	case i18n.Italian:
		return nonEmpty(taxon.ItalianURL)
	}
	return nonEmpty(taxon.EnglishURL)
}

func nonEmpty(value string) string {
	return strings.TrimSpace(value)
}
