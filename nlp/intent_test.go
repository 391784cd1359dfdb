package nlp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectIntent(t *testing.T) {
	t.Parallel()

	c := NewDefaultClassifier()

	tests := []struct {
		name     string
		input    string
		expected Intent
		found    bool
	}{
		{name: "empty", input: "", expected: IntentNone},
		{name: "whitespace", input: "  \n", expected: IntentNone},
		{name: "no match", input: "الجو حلو النهارده", expected: IntentNone},
		{name: "greeting", input: "السلام عليكم", expected: IntentGreeting, found: true},
		{name: "greeting with hamza", input: "أهلا", expected: IntentGreeting, found: true},
		{name: "product inquiry", input: "عايز اعرف الايفون", expected: IntentProductInquiry, found: true},
		{name: "order status", input: "فين الأوردر بتاعي", expected: IntentOrderStatus, found: true},
		{name: "complaint", input: "عندي مشكلة في السعر", expected: IntentComplaint, found: true},
		{name: "complaint after normalization", input: "مشكله كبيره", expected: IntentComplaint, found: true},
		{name: "price", input: "بكام ده", expected: IntentPriceInquiry, found: true},
		{name: "availability", input: "متوفر عندكم مقاس كبير؟", expected: IntentAvailability, found: true},
		{name: "payment", input: "الدفع فيزا", expected: IntentPayment, found: true},
		{name: "shipping", input: "التوصيل للاسكندرية", expected: IntentShipping, found: true},
		{name: "return", input: "ينفع استرجاع الجاكيت", expected: IntentReturn, found: true},
		{name: "farewell", input: "شكرا جزيلا", expected: IntentFarewell, found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := c.DetectIntent(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.found, ok)
		})
	}
}

func TestDetectIntentFirstMatchWins(t *testing.T) {
	t.Parallel()

	c := NewDefaultClassifier()

	// product_inquiry is declared before price_inquiry
	got, ok := c.DetectIntent("عايز اعرف سعر")
	require.True(t, ok)
	assert.Equal(t, IntentProductInquiry, got)

	// "مع السلامة" also contains the greeting keyword, and greeting comes first
	got, ok = c.DetectIntent("مع السلامة")
	require.True(t, ok)
	assert.Equal(t, IntentGreeting, got)
}

func TestDetectIntentNormalizedText(t *testing.T) {
	t.Parallel()

	n := NewDefaultNormalizer()
	c := NewDefaultClassifier()

	tests := []struct {
		input    string
		expected Intent
	}{
		{input: "عايز اعرف الايفون", expected: IntentProductInquiry},
		{input: "عاوز جاكيت", expected: IntentProductInquiry},
		{input: "محتاج مقاس", expected: IntentProductInquiry},
		{input: "ازيك", expected: IntentGreeting},
		{input: "بكام ده", expected: IntentPriceInquiry},
		{input: "فين الطلب", expected: IntentOrderStatus},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			raw, ok := c.DetectIntent(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.expected, raw)

			normalized, ok := c.DetectIntent(n.Normalize(tt.input))
			require.True(t, ok)
			assert.Equal(t, raw, normalized)
		})
	}
}

func TestClassifierWithoutNormalizerMissesRewrittenKeywords(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(DefaultIntentRules())
	require.NoError(t, err)

	_, ok := c.DetectIntent("اريد اعرف الايفون")
	assert.False(t, ok)

	c, err = NewClassifier(DefaultIntentRules(), WithNormalizer(NewDefaultNormalizer()))
	require.NoError(t, err)

	got, ok := c.DetectIntent("اريد اعرف الايفون")
	require.True(t, ok)
	assert.Equal(t, IntentProductInquiry, got)
}

func TestNormalizedAlternatives(t *testing.T) {
	t.Parallel()

	n := NewDefaultNormalizer()

	assert.Equal(t, "(?:بكم)", normalizedAlternatives(`(سعر|بكام)`, n))
	assert.Equal(t, "", normalizedAlternatives(`(سعر|منتج)`, n))
	assert.Equal(t, "", normalizedAlternatives(`\bعايز\b`, n))
	assert.Equal(t, "(?:اريد)", normalizedAlternatives(`(عايز|عاوز)`, n))
}

func TestCustomClassifier(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier([]IntentRule{
		{Intent: IntentGreeting, Patterns: []string{`\bhello\b`, `\bhi\b`}},
		{Intent: IntentFarewell, Patterns: []string{`\bbye\b`}},
	})
	require.NoError(t, err)

	got, ok := c.DetectIntent("HELLO there")
	assert.True(t, ok)
	assert.Equal(t, IntentGreeting, got)

	got, _ = c.DetectIntent("Hello and BYE")
	assert.Equal(t, IntentGreeting, got)

	got, _ = c.DetectIntent("ok bye")
	assert.Equal(t, IntentFarewell, got)

	_, ok = c.DetectIntent("nothing here")
	assert.False(t, ok)
}

func TestNewClassifierErrors(t *testing.T) {
	t.Parallel()

	_, err := NewClassifier([]IntentRule{{Intent: IntentNone, Patterns: []string{"x"}}})
	assert.Error(t, err)

	_, err = NewClassifier([]IntentRule{{Intent: Intent(200), Patterns: []string{"x"}}})
	assert.Error(t, err)

	_, err = NewClassifier([]IntentRule{{Intent: IntentPayment, Patterns: []string{"("}}})
	assert.Error(t, err)
}

func TestExtractIntentParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		intent   Intent
		expected map[string]string
	}{
		{
			name:     "order id with hash",
			text:     "order #4521",
			intent:   IntentOrderStatus,
			expected: map[string]string{"order_id": "4521"},
		},
		{
			name:     "first digit run",
			text:     "طلب 77 و 88",
			intent:   IntentOrderStatus,
			expected: map[string]string{"order_id": "77"},
		},
		{
			name:     "arabic-indic digits",
			text:     "الطلب رقم ٤٥٢١",
			intent:   IntentOrderStatus,
			expected: map[string]string{"order_id": "٤٥٢١"},
		},
		{
			name:     "no digits",
			text:     "فين الطلب",
			intent:   IntentOrderStatus,
			expected: map[string]string{},
		},
		{
			name:     "product query verbatim",
			text:     "عايز اعرف الايفون",
			intent:   IntentProductInquiry,
			expected: map[string]string{"query": "عايز اعرف الايفون"},
		},
		{
			name:     "other intent",
			text:     "order #4521",
			intent:   IntentGreeting,
			expected: map[string]string{},
		},
		{
			name:     "no intent",
			text:     "123",
			intent:   IntentNone,
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractIntentParams(tt.text, tt.intent)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseIntent(t *testing.T) {
	t.Parallel()

	for _, intent := range Intents() {
		parsed, ok := ParseIntent(intent.String())
		assert.True(t, ok, intent.String())
		assert.Equal(t, intent, parsed)
	}

	parsed, ok := ParseIntent(" Order_Status ")
	assert.True(t, ok)
	assert.Equal(t, IntentOrderStatus, parsed)

	_, ok = ParseIntent("")
	assert.False(t, ok)
	_, ok = ParseIntent("refund")
	assert.False(t, ok)
}

func TestIntentsOrder(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, NumIntents)
	for _, intent := range Intents() {
		names = append(names, intent.String())
	}
	assert.Equal(t, []string{
		"greeting", "product_inquiry", "order_status", "complaint", "price_inquiry",
		"availability", "payment", "shipping", "return", "farewell",
	}, names)
	assert.Equal(t, "", IntentNone.String())
	assert.False(t, IntentNone.Valid())
}

func TestIntentJSON(t *testing.T) {
	t.Parallel()

	type envelope struct {
		Intent Intent `json:"intent"`
	}

	out, err := json.Marshal(envelope{Intent: IntentShipping})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"shipping"}`, string(out))

	var in envelope
	require.NoError(t, json.Unmarshal([]byte(`{"intent":"return"}`), &in))
	assert.Equal(t, IntentReturn, in.Intent)

	assert.Error(t, json.Unmarshal([]byte(`{"intent":"bogus"}`), &in))
}

func TestExtractEntities(t *testing.T) {
	t.Parallel()

	got := ExtractEntities("الجاكيت ب 500 جنيه والشنطة 20 EGP")
	assert.Equal(t, []string{"500 جنيه", "20 EGP"}, got.Prices)

	got = ExtractEntities("costs 3 pounds")
	assert.Equal(t, []string{"3 pounds"}, got.Prices)

	assert.Empty(t, ExtractEntities("").Prices)
	assert.NotNil(t, ExtractEntities("لا يوجد سعر").Prices)
}
