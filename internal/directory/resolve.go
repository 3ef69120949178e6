// Package directory resolves free-text areas to municipalities, imports the
// municipality dataset and caches the set of municipality emails.
package directory

import (
	"strings"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
)

// Resolve picks one municipality for query from list, which must be in store
// order. Matching is case-insensitive and tries, in order: the exact name, a
// substring of the name, a substring of the district. The first entry that
// matches at the earliest stage wins.
func Resolve(list []models.Municipality, query string) (models.Municipality, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.Municipality{}, false
	}

	stages := []func(m models.Municipality) bool{
		func(m models.Municipality) bool { return strings.ToLower(strings.TrimSpace(m.Name)) == q },
		func(m models.Municipality) bool { return strings.Contains(strings.ToLower(m.Name), q) },
		func(m models.Municipality) bool { return strings.Contains(strings.ToLower(m.District), q) },
	}
	for _, match := range stages {
		for _, m := range list {
			if match(m) {
				return m, true
			}
		}
	}
	return models.Municipality{}, false
}
