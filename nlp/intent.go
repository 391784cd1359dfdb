package nlp

import (
	"fmt"
	"regexp"
	"strings"
)

// Intent is one of the fixed support intents. The zero value means no
// intent was detected.
type Intent uint8

const (
	IntentNone Intent = iota
	IntentGreeting
	IntentProductInquiry
	IntentOrderStatus
	IntentComplaint
	IntentPriceInquiry
	IntentAvailability
	IntentPayment
	IntentShipping
	IntentReturn
	IntentFarewell

	// NumIntents counts the slots including IntentNone, for tables indexed by Intent.
	NumIntents = int(IntentFarewell) + 1
)

var intentNames = [NumIntents]string{
	IntentNone:           "",
	IntentGreeting:       "greeting",
	IntentProductInquiry: "product_inquiry",
	IntentOrderStatus:    "order_status",
	IntentComplaint:      "complaint",
	IntentPriceInquiry:   "price_inquiry",
	IntentAvailability:   "availability",
	IntentPayment:        "payment",
	IntentShipping:       "shipping",
	IntentReturn:         "return",
	IntentFarewell:       "farewell",
}

// String returns the wire name of the intent, empty for IntentNone.
func (i Intent) String() string {
	if !i.Valid() && i != IntentNone {
		return fmt.Sprintf("Intent(%d)", uint8(i))
	}
	return intentNames[i]
}

// Valid reports whether i is a member of the closed intent set.
func (i Intent) Valid() bool {
	return i > IntentNone && int(i) < NumIntents
}

// MarshalText encodes the intent by its wire name.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes a wire name; an empty name decodes to IntentNone.
func (i *Intent) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*i = IntentNone
		return nil
	}
	parsed, ok := ParseIntent(string(b))
	if !ok {
		return fmt.Errorf("unknown intent %q", string(b))
	}
	*i = parsed
	return nil
}

// ParseIntent maps a wire name such as "order_status" to its Intent.
func ParseIntent(name string) (Intent, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return IntentNone, false
	}
	for idx := 1; idx < NumIntents; idx++ {
		if intentNames[idx] == name {
			return Intent(idx), true
		}
	}
	return IntentNone, false
}

// Intents lists the closed intent set in declaration order, which is also
// the classifier's tie-break order.
func Intents() []Intent {
	out := make([]Intent, 0, NumIntents-1)
	for idx := 1; idx < NumIntents; idx++ {
		out = append(out, Intent(idx))
	}
	return out
}

// IntentRule binds an intent to its alternative regular-expression patterns.
type IntentRule struct {
	Intent   Intent
	Patterns []string
}

type compiledRule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// Classifier detects support intents with ordered pattern groups.
// The first intent with any matching pattern wins.
type Classifier struct {
	rules []compiledRule
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*classifierConfig)

type classifierConfig struct {
	normalizer *Normalizer
}

// WithNormalizer makes every literal keyword also match in its normalized
// form, so text that went through n still classifies. Expanded forms join
// the keyword's own rule and do not change rule order.
func WithNormalizer(n *Normalizer) ClassifierOption {
	return func(cfg *classifierConfig) {
		cfg.normalizer = n
	}
}

// NewClassifier compiles the rules in the order given. Patterns are matched
// case-insensitively against folded text.
func NewClassifier(rules []IntentRule, opts ...ClassifierOption) (*Classifier, error) {
	var cfg classifierConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for _, rule := range rules {
		if !rule.Intent.Valid() {
			return nil, fmt.Errorf("invalid intent in rule: %v", rule.Intent)
		}

		compiled := compiledRule{intent: rule.Intent}
		for _, p := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + Fold(p))
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern %q for %s: %w", p, rule.Intent, err)
			}
			compiled.patterns = append(compiled.patterns, re)

			if cfg.normalizer == nil {
				continue
			}
			if extra := normalizedAlternatives(p, cfg.normalizer); extra != "" {
				re, err := regexp.Compile("(?i)" + extra)
				if err != nil {
					return nil, fmt.Errorf("failed to compile normalized pattern %q for %s: %w", extra, rule.Intent, err)
				}
				compiled.patterns = append(compiled.patterns, re)
			}
		}
		c.rules = append(c.rules, compiled)
	}
	return c, nil
}

// NewDefaultClassifier returns a classifier loaded with DefaultIntentRules
// that also recognizes keywords rewritten by the default normalizer.
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultIntentRules(), WithNormalizer(NewDefaultNormalizer()))
	if err != nil {
		panic(err)
	}
	return c
}

// normalizedAlternatives returns an alternation of the normalized forms of
// the literal keywords in p that normalization changes, or "" when there
// are none. Only patterns made of one group of plain literals such as
// `(a|b c)` are expanded.
func normalizedAlternatives(p string, n *Normalizer) string {
	alts, ok := literalAlternatives(p)
	if !ok {
		return ""
	}

	seen := make(map[string]bool)
	var extra []string
	for _, alt := range alts {
		folded := strings.Join(foldTokens(alt), " ")
		normalized := n.Normalize(alt)
		if normalized == "" || normalized == folded || seen[normalized] {
			continue
		}
		seen[normalized] = true
		extra = append(extra, regexp.QuoteMeta(normalized))
	}
	if len(extra) == 0 {
		return ""
	}
	return "(?:" + strings.Join(extra, "|") + ")"
}

// literalAlternatives splits `(a|b)` or `a|b` into its alternatives when
// every alternative is a plain literal.
func literalAlternatives(p string) ([]string, bool) {
	if strings.HasPrefix(p, "(") && strings.HasSuffix(p, ")") {
		p = p[1 : len(p)-1]
	}
	if p == "" {
		return nil, false
	}

	alts := strings.Split(p, "|")
	for _, alt := range alts {
		if alt == "" || regexp.QuoteMeta(alt) != alt {
			return nil, false
		}
	}
	return alts, true
}

// DetectIntent returns the first intent, in rule order, that has a pattern
// matching text. Empty text never matches.
func (c *Classifier) DetectIntent(text string) (Intent, bool) {
	if strings.TrimSpace(text) == "" {
		return IntentNone, false
	}

	folded := Fold(text)
	for _, rule := range c.rules {
		for _, re := range rule.patterns {
			if re.MatchString(folded) {
				return rule.intent, true
			}
		}
	}
	return IntentNone, false
}

var orderIDPattern = regexp.MustCompile(`#?(\p{Nd}+)`)

// ExtractIntentParams pulls intent-specific parameters out of text: the
// order number for order_status and the raw query for product_inquiry.
// Missing values are simply absent from the returned map.
func ExtractIntentParams(text string, intent Intent) map[string]string {
	params := make(map[string]string)

	switch intent {
	case IntentOrderStatus:
		if m := orderIDPattern.FindStringSubmatch(text); m != nil {
			params["order_id"] = m[1]
		}
	case IntentProductInquiry:
		params["query"] = text
	}

	return params
}

// DefaultIntentRules returns the built-in keyword groups for Egyptian
// Arabic support conversations in canonical order.
func DefaultIntentRules() []IntentRule {
	return []IntentRule{
		{IntentGreeting, []string{`(السلام|مرحبا|أهلا|صباح|مساء|ازيك|عامل|ايه|إيه)`}},
		{IntentProductInquiry, []string{`(عايز|محتاج|عاوز|بدور على|ابحث عن|منتج|حاجة)`}},
		{IntentOrderStatus, []string{`(طلب|أوردر|شحنة|وين|فين|وصل|متى يصل)`}},
		{IntentComplaint, []string{`(مشكلة|شكوى|غلط|خطأ|زعلان|مش راضي)`}},
		{IntentPriceInquiry, []string{`(سعر|بكام|كام|تمن|ثمن|قد ايه)`}},
		{IntentAvailability, []string{`(متوفر|موجود|عندكم|في المخزون)`}},
		{IntentPayment, []string{`(دفع|الدفع|كاش|فيزا|فودافون كاش|انستاباي)`}},
		{IntentShipping, []string{`(توصيل|شحن|التوصيل|الشحن|يوصل|متى يصل)`}},
		{IntentReturn, []string{`(ارجاع|استرجاع|استبدال|رجوع)`}},
		{IntentFarewell, []string{`(شكرا|مع السلامة|باي|وداعا|تمام كده)`}},
	}
}
