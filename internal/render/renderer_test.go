// internal/render/renderer_test.go
package render

import (
	"bytes"
	"testing"

	"printer-agent/pkg/escpos"
)

func newTestRenderer() *Renderer {
	return NewRenderer(48, nil)
}

func TestRender_InitializesPrinter(t *testing.T) {
	payload := newTestRenderer().Render(`{"elements":[]}`, `{}`)

	var want bytes.Buffer
	want.Write(escpos.ESC_POS_COMMANDS.INIT)
	want.Write(escpos.ESC_POS_COMMANDS.SELECT_CHARSET)
	if !bytes.HasPrefix(payload, want.Bytes()) {
		t.Errorf("payload does not start with INIT + charset selection: %#v", payload[:min(len(payload), 8)])
	}
}

func TestRender_TextElement(t *testing.T) {
	layout := `{"elements":[{"t":"text","v":"HELLO","a":"c","b":true}]}`
	payload := newTestRenderer().Render(layout, `{}`)

	if !bytes.Contains(payload, escpos.ESC_POS_COMMANDS.ALIGN_CENTER) {
		t.Error("missing center alignment")
	}
	if !bytes.Contains(payload, escpos.ESC_POS_COMMANDS.BOLD_ON) {
		t.Error("missing bold on")
	}
	if !bytes.Contains(payload, []byte("HELLO")) {
		t.Error("missing text content")
	}
	// Style resets after the element
	if !bytes.Contains(payload, escpos.ESC_POS_COMMANDS.ALIGN_LEFT) {
		t.Error("missing alignment reset")
	}
}

func TestRender_PlaceholderSubstitution(t *testing.T) {
	layout := `{"elements":[{"t":"text","v":"Siparis #{{orderNumber}} - {{customer.name}}"}]}`
	data := `{"orderNumber":42,"customer":{"name":"Ali"}}`

	payload := newTestRenderer().Render(layout, data)
	if !bytes.Contains(payload, []byte("Siparis #42 - Ali")) {
		t.Errorf("placeholders not substituted: %q", payload)
	}
}

func TestRender_LineElement(t *testing.T) {
	layout := `{"width":10,"elements":[{"t":"line","c":"="}]}`
	payload := newTestRenderer().Render(layout, `{}`)

	if !bytes.Contains(payload, []byte("==========")) {
		t.Errorf("line not repeated to declared width: %q", payload)
	}
}

func TestRender_RowElement(t *testing.T) {
	layout := `{"width":10,"elements":[{"t":"row","l":"A","r":"B"}]}`
	payload := newTestRenderer().Render(layout, `{}`)

	if !bytes.Contains(payload, []byte("A        B")) {
		t.Errorf("row not padded to width: %q", payload)
	}
}

func TestRender_RowDoubleWidthHalvesColumns(t *testing.T) {
	layout := `{"width":10,"elements":[{"t":"row","l":"A","r":"B","s":"lg"}]}`
	payload := newTestRenderer().Render(layout, `{}`)

	if !bytes.Contains(payload, []byte("A   B")) {
		t.Errorf("double-width row should pad to half the width: %q", payload)
	}
}

func TestRender_Condition(t *testing.T) {
	layout := `{"elements":[
		{"t":"text","v":"ALWAYS"},
		{"t":"text","v":"ONLY-PAID","cond":"paid"},
		{"t":"text","v":"ONLY-NOTE","cond":"order.note"}
	]}`
	data := `{"paid":true,"order":{"note":""}}`

	payload := newTestRenderer().Render(layout, data)
	if !bytes.Contains(payload, []byte("ALWAYS")) {
		t.Error("unconditional element missing")
	}
	if !bytes.Contains(payload, []byte("ONLY-PAID")) {
		t.Error("truthy condition should print")
	}
	if bytes.Contains(payload, []byte("ONLY-NOTE")) {
		t.Error("empty-string condition should not print")
	}
}

func TestRender_FeedAndCut(t *testing.T) {
	layout := `{"elements":[{"t":"feed","n":3},{"t":"cut"}]}`
	payload := newTestRenderer().Render(layout, `{}`)

	if !bytes.Contains(payload, escpos.FeedLines(3)) {
		t.Error("missing feed command")
	}
	if !bytes.HasSuffix(payload, escpos.ESC_POS_COMMANDS.CUT_FULL) {
		t.Error("payload should end with full cut")
	}
}

func TestRender_PartialCut(t *testing.T) {
	layout := `{"elements":[{"t":"cut","partial":true}]}`
	payload := newTestRenderer().Render(layout, `{}`)

	if !bytes.HasSuffix(payload, escpos.ESC_POS_COMMANDS.CUT_PARTIAL) {
		t.Error("payload should end with partial cut")
	}
}

func TestRender_Items(t *testing.T) {
	layout := `{"elements":[{"t":"items"}]}`
	data := `{"items":[
		{"productName":"Ayran","quantity":2,"unitPrice":15,
		 "addons":[{"addonName":"Buz","quantity":1,"unitPrice":0}],
		 "note":"az sogan"}
	]}`

	payload := newTestRenderer().Render(layout, data)
	if !bytes.Contains(payload, []byte("2x Ayran")) {
		t.Errorf("missing quantity-prefixed product line: %q", payload)
	}
	if !bytes.Contains(payload, []byte("15.00")) {
		t.Error("missing unit price")
	}
	if !bytes.Contains(payload, []byte("  + Buz")) {
		t.Error("missing addon line")
	}
	if !bytes.Contains(payload, []byte("  * az sogan")) {
		t.Error("missing note line")
	}
}

func TestRender_ItemsToggles(t *testing.T) {
	layout := `{"elements":[{"t":"items","showPrice":false,"showNotes":false}]}`
	data := `{"items":[{"productName":"Kofte","quantity":1,"unitPrice":120,"note":"acili"}]}`

	payload := newTestRenderer().Render(layout, data)
	if !bytes.Contains(payload, []byte("1x Kofte")) {
		t.Error("missing product line")
	}
	if bytes.Contains(payload, []byte("120.00")) {
		t.Error("price should be suppressed")
	}
	if bytes.Contains(payload, []byte("acili")) {
		t.Error("note should be suppressed")
	}
}

func TestRender_MalformedTemplate(t *testing.T) {
	payload := newTestRenderer().Render(`{not json`, `{}`)

	if !bytes.Contains(payload, []byte("=== HATA ===")) {
		t.Error("malformed template should yield the error receipt")
	}
	if !bytes.Contains(payload, []byte("JSON Parse Error")) {
		t.Error("error receipt should name the parse failure")
	}
	if !bytes.HasSuffix(payload, escpos.ESC_POS_COMMANDS.CUT_FULL) {
		t.Error("error receipt should cut the paper")
	}
}

func TestRender_MalformedData(t *testing.T) {
	payload := newTestRenderer().Render(`{"elements":[]}`, `{{`)

	if !bytes.Contains(payload, []byte("=== HATA ===")) {
		t.Error("malformed data should yield the error receipt")
	}
}

func TestRender_UnknownElementSkipped(t *testing.T) {
	layout := `{"elements":[{"t":"barcode","v":"123"},{"t":"text","v":"AFTER"}]}`
	payload := newTestRenderer().Render(layout, `{}`)

	if !bytes.Contains(payload, []byte("AFTER")) {
		t.Error("elements after an unknown type should still render")
	}
	if bytes.Contains(payload, []byte("123")) {
		t.Error("unknown element should produce no output")
	}
}

func TestRender_ItemSelectedOption(t *testing.T) {
	layout := `{"elements":[{"t":"items"}]}`

	tests := []struct {
		name string
		data string
		want string
	}{
		{
			"object with positive modifier",
			`{"items":[{"productName":"Pide","quantity":1,"unitPrice":80,
				"selectedOption":{"optionName":"Buyuk","priceModifier":5}}]}`,
			"  (Buyuk +5.00)",
		},
		{
			"object with negative modifier",
			`{"items":[{"productName":"Pide","quantity":1,"unitPrice":80,
				"selectedOption":{"optionName":"Kucuk","priceModifier":-5}}]}`,
			"  (Kucuk -5.00)",
		},
		{
			"plain string option",
			`{"items":[{"productName":"Pide","quantity":1,"unitPrice":80,
				"selectedOption":"Acili"}]}`,
			"  (Acili)",
		},
		{
			"zero modifier drops the price",
			`{"items":[{"productName":"Pide","quantity":1,"unitPrice":80,
				"selectedOption":{"optionName":"Orta","priceModifier":0}}]}`,
			"  (Orta)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := newTestRenderer().Render(layout, tt.data)
			if !bytes.Contains(payload, []byte(tt.want)) {
				t.Errorf("option line %q missing from output", tt.want)
			}
		})
	}
}

func TestRender_ItemRemovedIngredients(t *testing.T) {
	layout := `{"elements":[{"t":"items","showRemovedIngredients":true}]}`
	data := `{"items":[{"productName":"Doner","quantity":1,"unitPrice":95,
		"removedIngredients":[{"ingredientName":"Sogan"},{"ingredientName":"Tursu"}]}]}`

	payload := newTestRenderer().Render(layout, data)
	if !bytes.Contains(payload, []byte("  - CIKART: Sogan, Tursu")) {
		t.Error("removed ingredients should join onto one prefixed line")
	}
}

func TestRender_ItemRemovedIngredientsTextWins(t *testing.T) {
	layout := `{"elements":[{"t":"items","showRemovedIngredients":true}]}`
	data := `{"items":[{"productName":"Doner","quantity":1,"unitPrice":95,
		"removedIngredientsText":"SOGANSIZ TURSUSUZ",
		"removedIngredients":[{"ingredientName":"Sogan"},{"ingredientName":"Tursu"}]}]}`

	payload := newTestRenderer().Render(layout, data)
	if !bytes.Contains(payload, []byte("  SOGANSIZ TURSUSUZ")) {
		t.Error("preformatted removed text should render indented")
	}
	if bytes.Contains(payload, []byte("CIKART")) {
		t.Error("preformatted text should suppress the ingredient list")
	}
}

func TestRender_ItemRemovedIngredientsHidden(t *testing.T) {
	layout := `{"elements":[{"t":"items"}]}`
	data := `{"items":[{"productName":"Doner","quantity":1,"unitPrice":95,
		"removedIngredients":[{"ingredientName":"Sogan"}]}]}`

	payload := newTestRenderer().Render(layout, data)
	if bytes.Contains(payload, []byte("Sogan")) {
		t.Error("removed ingredients are opt-in and should stay hidden")
	}
}

func TestRender_SubItems(t *testing.T) {
	layout := `{"elements":[{"t":"items","showRemovedIngredients":true}]}`
	data := `{"items":[{"productName":"Menu","quantity":1,"unitPrice":150,"subItems":[
		{"itemName":"Kola","quantity":2,"additionalPrice":3,
			"removedIngredients":[{"ingredientName":"Limon"}],
			"addons":[{"addonName":"Buz"}]},
		{"displayTitle":"Tatli","itemName":"Sutlac","quantity":1}]}]}`

	payload := newTestRenderer().Render(layout, data)
	if !bytes.Contains(payload, []byte("  > 2x Kola  +3.00")) {
		t.Error("missing sub-item line with quantity and surcharge")
	}
	if !bytes.Contains(payload, []byte("  > Tatli: Sutlac")) {
		t.Error("missing titled sub-item line")
	}
	if !bytes.Contains(payload, []byte("      - CIKART: Limon")) {
		t.Error("sub-item removed ingredients should indent one level deeper")
	}
	if !bytes.Contains(payload, []byte("      + Buz")) {
		t.Error("sub-item addons should indent one level deeper")
	}
}
