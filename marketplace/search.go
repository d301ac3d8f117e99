package marketplace

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type dishSource []Dish

func (s dishSource) Len() int {
	return len(s)
}

func (s dishSource) String(i int) string {
	return s[i].Name + " " + s[i].MainComponent
}

// Search fuzzy matches query against dish names and main components, best
// match first. An empty query returns dishes unchanged.
func Search(dishes []Dish, query string) []Dish {
	query = strings.TrimSpace(query)
	if query == "" {
		return dishes
	}
	matches := fuzzy.FindFrom(query, dishSource(dishes))
	result := make([]Dish, 0, len(matches))
	for _, m := range matches {
		result = append(result, dishes[m.Index])
	}
	return result
}
