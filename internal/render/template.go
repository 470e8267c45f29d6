// internal/render/template.go
package render

import "encoding/json"

// ElementKind discriminates the layout element variants.
type ElementKind string

const (
	KindText    ElementKind = "text"
	KindLine    ElementKind = "line"
	KindRow     ElementKind = "row"
	KindFeed    ElementKind = "feed"
	KindItems   ElementKind = "items"
	KindCut     ElementKind = "cut"
	KindUnknown ElementKind = "unknown"
)

// Layout is a parsed receipt template: a column width and an ordered
// element list.
type Layout struct {
	Width    int
	Elements []Element
}

// Element is one layout entry. Exactly one of the variant pointers is
// set, selected by Kind. Cond names a data path that must be truthy
// for the element to print; empty means unconditional.
type Element struct {
	Kind ElementKind
	Cond string

	Text  *TextElement
	Line  *LineElement
	Row   *RowElement
	Feed  *FeedElement
	Items *ItemsElement
	Cut   *CutElement

	// rawKind keeps the original type tag for the unknown warning.
	rawKind string
}

// TextElement prints one aligned, optionally styled line of text.
// Value may contain {{placeholder}} tokens.
type TextElement struct {
	Align string
	Size  string
	Bold  bool
	Value string
}

// LineElement prints a horizontal rule built by repeating Char across
// the receipt width.
type LineElement struct {
	Char string
}

// RowElement prints a left and a right fragment on one line, padded
// apart to the effective width. Both sides may contain placeholders.
type RowElement struct {
	Left  string
	Right string
	Size  string
	Bold  bool
}

// FeedElement advances the paper by Lines lines.
type FeedElement struct {
	Lines int
}

// ItemsElement expands the order's line items: one bold product line
// per item plus its option, removed ingredients, add-ons, sub-items
// and note, controlled by the show toggles.
type ItemsElement struct {
	FontSize string

	ShowQuantity           bool
	ShowPrice              bool
	ShowAddons             bool
	ShowSubItems           bool
	ShowNotes              bool
	ShowRemovedIngredients bool
	ShowSelectedOption     bool

	AddonPrefix   string
	SubItemPrefix string
	NotePrefix    string
	RemovedPrefix string
}

// CutElement cuts the paper, fully by default.
type CutElement struct {
	Partial bool
}

// parseLayout decodes a template JSON document. Parsing is total:
// wrong-typed fields fall back to their defaults, a non-object
// document becomes an empty layout. Only malformed JSON returns an
// error.
func parseLayout(layoutJSON string, defaultWidth int) (*Layout, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(layoutJSON), &raw); err != nil {
		return nil, err
	}
	obj, _ := raw.(map[string]interface{})

	layout := &Layout{Width: defaultWidth}
	if w, ok := obj["width"].(float64); ok && int(w) > 0 {
		layout.Width = int(w)
	}
	for _, entry := range getList(obj, "elements") {
		elem, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		layout.Elements = append(layout.Elements, parseElement(elem))
	}
	return layout, nil
}

// parseElement builds the typed variant for one raw element map.
func parseElement(elem map[string]interface{}) Element {
	kind := "text"
	if raw, ok := elem["t"]; ok {
		if s, isString := raw.(string); isString {
			kind = s
		} else {
			kind = stringify(raw)
		}
	}

	out := Element{
		Cond:    getString(elem, "cond", ""),
		rawKind: kind,
	}

	switch kind {
	case "text":
		out.Kind = KindText
		out.Text = &TextElement{
			Align: getString(elem, "a", "l"),
			Size:  getString(elem, "s", "md"),
			Bold:  getToggle(elem, "b", false),
			Value: getString(elem, "v", ""),
		}
	case "line":
		out.Kind = KindLine
		out.Line = &LineElement{
			Char: getString(elem, "c", "-"),
		}
	case "row":
		out.Kind = KindRow
		out.Row = &RowElement{
			Left:  getString(elem, "l", ""),
			Right: getString(elem, "r", ""),
			Size:  getString(elem, "s", "md"),
			Bold:  getToggle(elem, "b", false),
		}
	case "feed":
		out.Kind = KindFeed
		out.Feed = &FeedElement{
			Lines: int(getNumber(elem, 1, "n")),
		}
	case "items":
		out.Kind = KindItems
		out.Items = &ItemsElement{
			FontSize:               getString(elem, "fontSize", "md"),
			ShowQuantity:           getToggle(elem, "showQuantity", true),
			ShowPrice:              getToggle(elem, "showPrice", true),
			ShowAddons:             getToggle(elem, "showAddons", true),
			ShowSubItems:           getToggle(elem, "showSubItems", true),
			ShowNotes:              getToggle(elem, "showNotes", true),
			ShowRemovedIngredients: getToggle(elem, "showRemovedIngredients", false),
			ShowSelectedOption:     getToggle(elem, "showSelectedOption", true),
			AddonPrefix:            getString(elem, "addonPrefix", "  + "),
			SubItemPrefix:          getString(elem, "subItemPrefix", "  > "),
			NotePrefix:             getString(elem, "notePrefix", "  * "),
			RemovedPrefix:          getString(elem, "removedPrefix", "  - CIKART: "),
		}
	case "cut":
		out.Kind = KindCut
		out.Cut = &CutElement{
			Partial: getToggle(elem, "partial", false),
		}
	default:
		out.Kind = KindUnknown
	}
	return out
}
