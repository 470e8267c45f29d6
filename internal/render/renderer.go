// internal/render/renderer.go
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"printer-agent/pkg/escpos"
)

const (
	errorHeader       = "=== HATA ==="
	parseErrorMessage = "JSON Parse Error"
)

// Renderer turns a receipt template plus order data into a printable
// ESC/POS byte stream.
type Renderer struct {
	defaultWidth int
	logger       *zap.Logger
}

// NewRenderer creates a renderer. defaultWidth applies to templates
// that do not declare their own column width.
func NewRenderer(defaultWidth int, logger *zap.Logger) *Renderer {
	if defaultWidth <= 0 {
		defaultWidth = 48
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		defaultWidth: defaultWidth,
		logger:       logger,
	}
}

// Render produces the complete byte stream for one print job. It
// never fails: malformed JSON yields an error receipt so the printer
// always has something to say.
func (r *Renderer) Render(layoutJSON, dataJSON string) []byte {
	layout, err := parseLayout(layoutJSON, r.defaultWidth)
	if err != nil {
		r.logger.Error("template JSON parse failed", zap.Error(err))
		return r.errorReceipt(parseErrorMessage)
	}
	data, err := parseData(dataJSON)
	if err != nil {
		r.logger.Error("print data JSON parse failed", zap.Error(err))
		return r.errorReceipt(parseErrorMessage)
	}

	var buf bytes.Buffer
	buf.Write(escpos.ESC_POS_COMMANDS.INIT)
	buf.Write(escpos.ESC_POS_COMMANDS.SELECT_CHARSET)

	for _, elem := range layout.Elements {
		if elem.Cond != "" && !conditionMet(data, elem.Cond) {
			continue
		}
		switch elem.Kind {
		case KindText:
			r.renderText(&buf, elem.Text, data)
		case KindLine:
			r.renderLine(&buf, elem.Line, layout.Width)
		case KindRow:
			r.renderRow(&buf, elem.Row, data, layout.Width)
		case KindFeed:
			buf.Write(escpos.FeedLines(elem.Feed.Lines))
		case KindItems:
			r.renderItems(&buf, elem.Items, data, layout.Width)
		case KindCut:
			buf.Write(escpos.CutCommand(elem.Cut.Partial))
		default:
			r.logger.Warn("unknown element type", zap.String("type", elem.rawKind))
		}
	}
	return buf.Bytes()
}

// parseData decodes the job's order data. A valid document that is
// not an object becomes an empty one.
func parseData(dataJSON string) (map[string]interface{}, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(dataJSON), &raw); err != nil {
		return nil, err
	}
	obj, _ := raw.(map[string]interface{})
	if obj == nil {
		obj = map[string]interface{}{}
	}
	return obj, nil
}

func (r *Renderer) renderText(buf *bytes.Buffer, el *TextElement, data map[string]interface{}) {
	buf.Write(escpos.AlignCommand(el.Align))
	buf.Write(escpos.SizeCommand(el.Size))
	if el.Bold {
		buf.Write(escpos.ESC_POS_COMMANDS.BOLD_ON)
	}
	buf.Write(escpos.Encode(substitute(el.Value, data)))
	buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	if el.Bold {
		buf.Write(escpos.ESC_POS_COMMANDS.BOLD_OFF)
	}
	buf.Write(escpos.ESC_POS_COMMANDS.SIZE_NORMAL)
	buf.Write(escpos.ESC_POS_COMMANDS.ALIGN_LEFT)
}

func (r *Renderer) renderLine(buf *bytes.Buffer, el *LineElement, width int) {
	buf.Write(escpos.Encode(strings.Repeat(el.Char, width)))
	buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
}

func (r *Renderer) renderRow(buf *bytes.Buffer, el *RowElement, data map[string]interface{}, width int) {
	buf.Write(escpos.SizeCommand(el.Size))
	if el.Bold {
		buf.Write(escpos.ESC_POS_COMMANDS.BOLD_ON)
	}

	left := substitute(el.Left, data)
	right := substitute(el.Right, data)

	// Double-width characters halve the usable column count.
	effective := width
	if escpos.IsDoubleWidth(el.Size) {
		effective = width / 2
	}
	spaces := effective - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if spaces < 1 {
		spaces = 1
	}

	buf.Write(escpos.Encode(left + strings.Repeat(" ", spaces) + right))
	buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)

	if el.Bold {
		buf.Write(escpos.ESC_POS_COMMANDS.BOLD_OFF)
	}
	buf.Write(escpos.ESC_POS_COMMANDS.SIZE_NORMAL)
}

// renderItems expands data["items"]: a bold product line per item,
// then option, removed ingredients, add-ons, sub-items and note, with
// a blank line after every item.
func (r *Renderer) renderItems(buf *bytes.Buffer, el *ItemsElement, data map[string]interface{}, width int) {
	buf.Write(escpos.SizeCommand(el.FontSize))

	for _, entry := range getList(data, "items") {
		item, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		r.renderItemLine(buf, el, item, width)

		if el.ShowSelectedOption {
			r.renderItemOption(buf, el, item)
		}
		if el.ShowRemovedIngredients {
			r.renderItemRemoved(buf, el, item)
		}
		if el.ShowAddons {
			r.renderItemAddons(buf, el, item)
		}
		if el.ShowSubItems {
			r.renderSubItems(buf, el, item)
		}
		if el.ShowNotes {
			if note := item["note"]; truthy(note) {
				buf.Write(escpos.Encode(el.NotePrefix + stringify(note)))
				buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
			}
		}

		buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	}

	buf.Write(escpos.ESC_POS_COMMANDS.SIZE_NORMAL)
}

// renderItemLine prints the bold primary line. With quantity and
// price both shown the price is right-padded against the declared
// receipt width.
func (r *Renderer) renderItemLine(buf *bytes.Buffer, el *ItemsElement, item map[string]interface{}, width int) {
	qty := getNumber(item, 1, "quantity")
	name := getText(item, "productName", "name")
	price := getNumber(item, 0, "unitPrice", "price")

	buf.Write(escpos.ESC_POS_COMMANDS.BOLD_ON)

	var line string
	switch {
	case el.ShowQuantity && el.ShowPrice:
		left := stringify(qty) + "x " + name
		right := fmt.Sprintf("%.2f", price)
		spaces := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
		if spaces < 1 {
			spaces = 1
		}
		line = left + strings.Repeat(" ", spaces) + right
	case el.ShowQuantity:
		line = stringify(qty) + "x " + name
	case el.ShowPrice:
		line = fmt.Sprintf("%s  %.2f", name, price)
	default:
		line = name
	}

	buf.Write(escpos.Encode(line))
	buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	buf.Write(escpos.ESC_POS_COMMANDS.BOLD_OFF)
}

func (r *Renderer) renderItemOption(buf *bytes.Buffer, el *ItemsElement, item map[string]interface{}) {
	selected := item["selectedOption"]
	if !truthy(selected) {
		return
	}

	optPrice := getNumber(item, 0, "selectedOptionPrice")
	var optName string
	if obj, ok := selected.(map[string]interface{}); ok {
		optName = getText(obj, "optionName")
		optPrice = getNumber(obj, optPrice, "priceModifier")
	} else {
		optName = stringify(selected)
	}
	if optName == "" {
		return
	}

	if el.ShowPrice && optPrice != 0 {
		sign := ""
		if optPrice > 0 {
			sign = "+"
		}
		buf.Write(escpos.Encode(fmt.Sprintf("  (%s %s%.2f)", optName, sign, optPrice)))
	} else {
		buf.Write(escpos.Encode(fmt.Sprintf("  (%s)", optName)))
	}
	buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
}

// renderItemRemoved prints removed ingredients in bold. A preformatted
// removedIngredientsText wins over the raw list.
func (r *Renderer) renderItemRemoved(buf *bytes.Buffer, el *ItemsElement, item map[string]interface{}) {
	if text := item["removedIngredientsText"]; truthy(text) {
		buf.Write(escpos.ESC_POS_COMMANDS.BOLD_ON)
		buf.Write(escpos.Encode("  " + stringify(text)))
		buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
		buf.Write(escpos.ESC_POS_COMMANDS.BOLD_OFF)
		return
	}

	removed := getList(item, "removedIngredients")
	if len(removed) == 0 {
		return
	}
	buf.Write(escpos.ESC_POS_COMMANDS.BOLD_ON)
	names := make([]string, 0, len(removed))
	for _, ing := range removed {
		if obj, ok := ing.(map[string]interface{}); ok {
			names = append(names, getText(obj, "ingredientName", "name"))
		} else {
			names = append(names, stringify(ing))
		}
	}
	if len(names) > 0 {
		buf.Write(escpos.Encode(el.RemovedPrefix + strings.Join(names, ", ")))
		buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	}
	buf.Write(escpos.ESC_POS_COMMANDS.BOLD_OFF)
}

func (r *Renderer) renderItemAddons(buf *bytes.Buffer, el *ItemsElement, item map[string]interface{}) {
	for _, entry := range getList(item, "addons") {
		addon, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		name := getText(addon, "addonName", "name")
		qty := getNumber(addon, 1, "quantity", "quantityPerParent")
		unit := getNumber(addon, 0, "unitPrice", "price")
		total := getNumber(addon, unit*qty, "lineTotal")

		text := el.AddonPrefix
		if qty > 1 {
			text += stringify(qty) + "x " + name
		} else {
			text += name
		}
		if related := addon["relatedOptionName"]; truthy(related) {
			text += " (" + stringify(related) + ")"
		}
		if el.ShowPrice && total > 0 {
			text += fmt.Sprintf("  +%.2f", total)
		}

		buf.Write(escpos.Encode(text))
		buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	}
}

// renderSubItems prints set-menu components, each with its own
// removed ingredients and add-ons one indent level deeper.
func (r *Renderer) renderSubItems(buf *bytes.Buffer, el *ItemsElement, item map[string]interface{}) {
	for _, entry := range getList(item, "subItems") {
		sub, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		title := getText(sub, "displayTitle")
		name := getText(sub, "itemName", "name")
		qty := getNumber(sub, 1, "quantity", "quantityPerParent")
		extra := getNumber(sub, 0, "additionalPrice")

		text := el.SubItemPrefix
		if title != "" {
			text = el.SubItemPrefix + title + ": "
		}
		if qty > 1 {
			text += stringify(qty) + "x " + name
		} else {
			text += name
		}
		if el.ShowPrice && extra > 0 {
			text += fmt.Sprintf("  +%.2f", extra)
		}

		buf.Write(escpos.Encode(text))
		buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)

		if el.ShowRemovedIngredients {
			r.renderSubRemoved(buf, el, sub)
		}
		if el.ShowAddons {
			r.renderSubAddons(buf, el, sub)
		}
	}
}

func (r *Renderer) renderSubRemoved(buf *bytes.Buffer, el *ItemsElement, sub map[string]interface{}) {
	if text := sub["removedIngredientsText"]; truthy(text) {
		buf.Write(escpos.ESC_POS_COMMANDS.BOLD_ON)
		buf.Write(escpos.Encode("    " + stringify(text)))
		buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
		buf.Write(escpos.ESC_POS_COMMANDS.BOLD_OFF)
		return
	}

	removed := getList(sub, "removedIngredients")
	if len(removed) == 0 {
		return
	}
	buf.Write(escpos.ESC_POS_COMMANDS.BOLD_ON)
	names := make([]string, 0, len(removed))
	for _, ing := range removed {
		if obj, ok := ing.(map[string]interface{}); ok {
			names = append(names, getText(obj, "ingredientName"))
		} else {
			names = append(names, stringify(ing))
		}
	}
	if len(names) > 0 {
		buf.Write(escpos.Encode("    " + el.RemovedPrefix + strings.Join(names, ", ")))
		buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	}
	buf.Write(escpos.ESC_POS_COMMANDS.BOLD_OFF)
}

func (r *Renderer) renderSubAddons(buf *bytes.Buffer, el *ItemsElement, sub map[string]interface{}) {
	for _, entry := range getList(sub, "addons") {
		addon, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		name := getText(addon, "addonName", "name")
		qty := getNumber(addon, 1, "quantity", "quantityPerParent")
		price := getNumber(addon, 0, "lineTotal", "unitPrice")

		text := "    " + el.AddonPrefix
		if qty > 1 {
			text += stringify(qty) + "x " + name
		} else {
			text += name
		}
		if el.ShowPrice && price > 0 {
			text += fmt.Sprintf("  +%.2f", price)
		}

		buf.Write(escpos.Encode(text))
		buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	}
}

// errorReceipt prints a short centered error slip. Emitted whenever a
// job cannot be rendered, in place of silence at the counter.
func (r *Renderer) errorReceipt(message string) []byte {
	var buf bytes.Buffer
	buf.Write(escpos.ESC_POS_COMMANDS.INIT)
	buf.Write(escpos.ESC_POS_COMMANDS.SELECT_CHARSET)
	buf.Write(escpos.ESC_POS_COMMANDS.ALIGN_CENTER)
	buf.Write(escpos.ESC_POS_COMMANDS.BOLD_ON)
	buf.Write(escpos.Encode(errorHeader))
	buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	buf.Write(escpos.ESC_POS_COMMANDS.BOLD_OFF)
	buf.Write(escpos.Encode(message))
	buf.Write(escpos.ESC_POS_COMMANDS.FEED_LINE)
	buf.Write(escpos.FeedLines(3))
	buf.Write(escpos.ESC_POS_COMMANDS.CUT_FULL)
	return buf.Bytes()
}
