// internal/render/value_test.go
package render

import "testing"

func TestResolvePath(t *testing.T) {
	data := map[string]interface{}{
		"orderNumber": float64(42),
		"customer": map[string]interface{}{
			"name": "Ali",
			"address": map[string]interface{}{
				"city": "İzmir",
			},
		},
		"note": nil,
	}

	tests := []struct {
		name string
		path string
		want interface{}
	}{
		{"flat key", "orderNumber", float64(42)},
		{"nested key", "customer.name", "Ali"},
		{"deeply nested key", "customer.address.city", "İzmir"},
		{"missing root", "payment", nil},
		{"missing leaf", "customer.phone", nil},
		{"descends into non-object", "orderNumber.digits", nil},
		{"null value", "note", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolvePath(data, tt.path); got != tt.want {
				t.Errorf("resolvePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"zero", float64(0), false},
		{"nonzero", float64(0.5), true},
		{"negative", float64(-1), true},
		{"empty string", "", false},
		{"string", "x", true},
		{"empty list", []interface{}{}, false},
		{"list", []interface{}{1}, true},
		{"empty object", map[string]interface{}{}, false},
		{"object", map[string]interface{}{"k": 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truthy(tt.value); got != tt.want {
				t.Errorf("truthy(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestConditionMet(t *testing.T) {
	data := map[string]interface{}{
		"paid":     true,
		"unpaid":   false,
		"count":    float64(3),
		"zero":     float64(0),
		"label":    "x",
		"blank":    "",
		"items":    []interface{}{1},
		"noItems":  []interface{}{},
		"customer": map[string]interface{}{},
		"order":    map[string]interface{}{"delivery": true},
	}

	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"true flag", "paid", true},
		{"false flag", "unpaid", false},
		{"nonzero count", "count", true},
		{"zero count", "zero", false},
		{"nonempty string", "label", true},
		{"empty string", "blank", false},
		{"nonempty list", "items", true},
		{"empty list", "noItems", false},
		{"missing key", "delivery", false},
		{"nested path", "order.delivery", true},
		// An object passes regardless of size.
		{"empty object", "customer", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := conditionMet(data, tt.cond); got != tt.want {
				t.Errorf("conditionMet(%q) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestSubstitute(t *testing.T) {
	data := map[string]interface{}{
		"orderNumber": float64(42),
		"total":       float64(12.5),
		"paid":        true,
		"customer": map[string]interface{}{
			"name": "Ayşe",
		},
		"quoted": "{{orderNumber}}",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"plain text untouched", "Sipariş", "Sipariş"},
		{"string value", "Ad: {{customer.name}}", "Ad: Ayşe"},
		{"integer renders without decimals", "No: {{orderNumber}}", "No: 42"},
		{"fraction keeps decimals", "Tutar: {{total}}", "Tutar: 12.5"},
		{"boolean", "Odendi: {{paid}}", "Odendi: true"},
		{"missing path becomes empty", "[{{missing.key}}]", "[]"},
		{"several tokens", "{{orderNumber}}-{{customer.name}}", "42-Ayşe"},
		{"same token twice", "{{orderNumber}}/{{orderNumber}}", "42/42"},
		// Substituted values are not re-expanded.
		{"no recursion", "{{quoted}}", "{{orderNumber}}"},
		{"malformed token untouched", "{{ not a token }}", "{{ not a token }}"},
		{"hyphenated path not a token", "{{order-number}}", "{{order-number}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substitute(tt.template, data); got != tt.want {
				t.Errorf("substitute(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestGetNumberKeyOrder(t *testing.T) {
	obj := map[string]interface{}{
		"unitPrice": float64(4),
		"price":     float64(9),
		"label":     "x",
	}
	if got := getNumber(obj, 0, "unitPrice", "price"); got != 4 {
		t.Errorf("getNumber preferred key = %v, want 4", got)
	}
	if got := getNumber(obj, 0, "missing", "price"); got != 9 {
		t.Errorf("getNumber fallback key = %v, want 9", got)
	}
	if got := getNumber(obj, 7, "missing"); got != 7 {
		t.Errorf("getNumber default = %v, want 7", got)
	}
	// Wrong-typed values count as absent.
	if got := getNumber(obj, 0, "label", "price"); got != 9 {
		t.Errorf("getNumber skips non-number = %v, want 9", got)
	}
}

func TestGetToggle(t *testing.T) {
	obj := map[string]interface{}{
		"on":    true,
		"off":   false,
		"one":   float64(1),
		"zero":  float64(0),
		"blank": "",
	}
	tests := []struct {
		key      string
		fallback bool
		want     bool
	}{
		{"on", false, true},
		{"off", true, false},
		{"one", false, true},
		{"zero", true, false},
		{"blank", true, false},
		{"absent", true, true},
		{"absent", false, false},
	}
	for _, tt := range tests {
		if got := getToggle(obj, tt.key, tt.fallback); got != tt.want {
			t.Errorf("getToggle(%q, %v) = %v, want %v", tt.key, tt.fallback, got, tt.want)
		}
	}
}
