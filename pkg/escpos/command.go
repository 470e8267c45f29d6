// pkg/escpos/command.go

// Package escpos builds ESC/POS byte sequences for thermal receipt
// printers: initialization, text style, alignment, paper movement and
// code page selection, plus CP857 transcoding for Turkish text.
package escpos

// ESC_POS_COMMANDS contains the raw ESC/POS control sequences used by
// the receipt renderer and the printer drivers.
var ESC_POS_COMMANDS = struct {
	// Printer control
	INIT           []byte // Initialize printer
	STATUS_REQUEST []byte // Real-time printer status

	// Text style
	BOLD_ON       []byte // Emphasis on
	BOLD_OFF      []byte // Emphasis off
	UNDERLINE_ON  []byte // Underline on
	UNDERLINE_OFF []byte // Underline off

	// Character size
	SIZE_NORMAL        []byte // 1x1
	SIZE_DOUBLE_WIDTH  []byte // 2x1
	SIZE_DOUBLE_HEIGHT []byte // 1x2
	SIZE_DOUBLE_BOTH   []byte // 2x2

	// Alignment
	ALIGN_LEFT   []byte
	ALIGN_CENTER []byte
	ALIGN_RIGHT  []byte

	// Paper movement
	FEED_LINE   []byte // Print buffer and feed one line
	CUT_FULL    []byte
	CUT_PARTIAL []byte

	// Code pages
	CHARSET_PC437 []byte // USA, standard Europe
	CHARSET_PC850 []byte // Multilingual
	CHARSET_PC857 []byte // Turkish
	CHARSET_PC858 []byte // Multilingual + euro

	// SELECT_CHARSET is the code page emitted at the start of every
	// receipt. Turkish receipts need PC857.
	SELECT_CHARSET []byte
}{
	INIT:           []byte{0x1B, 0x40},       // ESC @
	STATUS_REQUEST: []byte{0x10, 0x04, 0x01}, // DLE EOT 1

	BOLD_ON:       []byte{0x1B, 0x45, 0x01}, // ESC E 1
	BOLD_OFF:      []byte{0x1B, 0x45, 0x00}, // ESC E 0
	UNDERLINE_ON:  []byte{0x1B, 0x2D, 0x01}, // ESC - 1
	UNDERLINE_OFF: []byte{0x1B, 0x2D, 0x00}, // ESC - 0

	SIZE_NORMAL:        []byte{0x1D, 0x21, 0x00}, // GS ! 0x00
	SIZE_DOUBLE_WIDTH:  []byte{0x1D, 0x21, 0x10}, // GS ! 0x10
	SIZE_DOUBLE_HEIGHT: []byte{0x1D, 0x21, 0x01}, // GS ! 0x01
	SIZE_DOUBLE_BOTH:   []byte{0x1D, 0x21, 0x11}, // GS ! 0x11

	ALIGN_LEFT:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	ALIGN_CENTER: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	ALIGN_RIGHT:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	FEED_LINE:   []byte{0x0A},             // LF
	CUT_FULL:    []byte{0x1D, 0x56, 0x00}, // GS V 0
	CUT_PARTIAL: []byte{0x1D, 0x56, 0x01}, // GS V 1

	CHARSET_PC437: []byte{0x1B, 0x74, 0x00}, // ESC t 0
	CHARSET_PC850: []byte{0x1B, 0x74, 0x02}, // ESC t 2
	CHARSET_PC857: []byte{0x1B, 0x74, 0x12}, // ESC t 18
	CHARSET_PC858: []byte{0x1B, 0x74, 0x13}, // ESC t 19

	SELECT_CHARSET: []byte{0x1B, 0x74, 0x12}, // ESC t 18 - PC857
}

// sizeCommands maps layout size classes to GS ! sequences. The small
// classes all print at normal size; only lg and xl scale up.
var sizeCommands = map[string][]byte{
	"xs": ESC_POS_COMMANDS.SIZE_NORMAL,
	"sm": ESC_POS_COMMANDS.SIZE_NORMAL,
	"md": ESC_POS_COMMANDS.SIZE_NORMAL,
	"lg": ESC_POS_COMMANDS.SIZE_DOUBLE_WIDTH,
	"xl": ESC_POS_COMMANDS.SIZE_DOUBLE_BOTH,
}

// alignCommands maps layout alignment codes to ESC a sequences.
var alignCommands = map[string][]byte{
	"l": ESC_POS_COMMANDS.ALIGN_LEFT,
	"c": ESC_POS_COMMANDS.ALIGN_CENTER,
	"r": ESC_POS_COMMANDS.ALIGN_RIGHT,
}

// SizeCommand returns the character size sequence for a layout size
// class. Unknown classes fall back to normal size.
func SizeCommand(size string) []byte {
	if cmd, ok := sizeCommands[size]; ok {
		return cmd
	}
	return ESC_POS_COMMANDS.SIZE_NORMAL
}

// AlignCommand returns the alignment sequence for a layout alignment
// code. Unknown codes fall back to left.
func AlignCommand(align string) []byte {
	if cmd, ok := alignCommands[align]; ok {
		return cmd
	}
	return ESC_POS_COMMANDS.ALIGN_LEFT
}

// IsDoubleWidth reports whether a size class doubles the character
// width, which halves the usable column count.
func IsDoubleWidth(size string) bool {
	return size == "lg" || size == "xl"
}

// FeedLines returns an ESC d sequence feeding n lines. The count is
// clamped to the single byte the command accepts.
func FeedLines(n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return []byte{0x1B, 0x64, byte(n)} // ESC d n
}

// CutCommand returns the paper cut sequence, partial or full.
func CutCommand(partial bool) []byte {
	if partial {
		return ESC_POS_COMMANDS.CUT_PARTIAL
	}
	return ESC_POS_COMMANDS.CUT_FULL
}
