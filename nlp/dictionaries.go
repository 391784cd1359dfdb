package nlp

// Egyptian colloquial words and their standard-form replacements.
var egyptianDialect = map[string]string{
	// Greetings
	"ازيك": "كيف حالك",
	"ازاي": "كيف",
	"إزاي": "كيف",
	"إيه":  "ماذا",
	"ايه":  "ماذا",

	// Questions
	"فين":  "أين",
	"منين": "من أين",
	"امتى": "متى",
	"ليه":  "لماذا",

	// Common words
	"عايز":  "أريد",
	"عاوز":  "أريد",
	"محتاج": "أحتاج",
	"بدي":   "أريد",
	"ممكن":  "هل يمكن",
	"ينفع":  "هل يمكن",

	// Products
	"حاجة": "شيء",
	"حاجه": "شيء",
	"هدوم": "ملابس",

	// Prices
	"بكام": "بكم",
	"سعر":  "سعر",

	// Affirmatives
	"اه":   "نعم",
	"آه":   "نعم",
	"ايوه": "نعم",
	"أيوة": "نعم",
	"تمام": "نعم",
	"ماشي": "نعم",

	// Negatives
	"لا":  "لا",
	"لأ":  "لا",
	"مش":  "ليس",
	"ما":  "لا",
}

// Multi-word idioms, matched before single words.
var egyptianExpressions = map[string]string{
	"عامل ايه":        "كيف حالك",
	"عامل إيه":        "كيف حالك",
	"بقد ايه":         "بكم",
	"يا سلام":         "رائع",
	"يا نهار":         "يا للعجب",
	"الله":            "حسناً",
	"ربنا يخليك":      "شكراً",
	"جزاك الله خيراً": "شكراً",
}

// DefaultDialect returns a copy of the built-in word-level dialect mapping.
func DefaultDialect() map[string]string {
	return copyMapping(egyptianDialect)
}

// DefaultExpressions returns a copy of the built-in phrase-level mapping.
func DefaultExpressions() map[string]string {
	return copyMapping(egyptianExpressions)
}

func copyMapping(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
