package nlp

import "regexp"

// Entities holds values pulled out of a customer message.
type Entities struct {
	Prices []string `json:"prices"`
}

var pricePattern = regexp.MustCompile(`(?i)\p{Nd}+\s*(?:جنيه|ج\.م|pounds?|EGP)`)

// ExtractEntities finds price mentions such as "500 جنيه" or "20 EGP".
// Prices are returned in order of appearance.
func ExtractEntities(text string) Entities {
	entities := Entities{Prices: []string{}}
	if text == "" {
		return entities
	}

	entities.Prices = append(entities.Prices, pricePattern.FindAllString(text, -1)...)
	return entities
}
