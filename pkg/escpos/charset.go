// pkg/escpos/charset.go
package escpos

// replacementByte is printed for runes that exist in neither the
// override table nor CP857.
const replacementByte = 0x3F // '?'

// turkishOverrides pins the Turkish letters to their CP857 positions.
// Consulted before the generic table.
var turkishOverrides = map[rune]byte{
	'ç': 0x87,
	'Ç': 0x80,
	'ğ': 0xA7,
	'Ğ': 0xA6,
	'ı': 0x8D,
	'İ': 0x98,
	'ö': 0x94,
	'Ö': 0x99,
	'ş': 0x9F,
	'Ş': 0x9E,
	'ü': 0x81,
	'Ü': 0x9A,
}

// cp857HighHalf is the CP857 decode table for bytes 0x80-0xFF.
// 0x00 marks the three positions the code page leaves undefined
// (0xD5, 0xE7, 0xF2). The low half is plain ASCII.
var cp857HighHalf = [128]rune{
	'Ç', 'ü', 'é', 'â', 'ä', 'à', 'å', 'ç', // 0x80-0x87
	'ê', 'ë', 'è', 'ï', 'î', 'ı', 'Ä', 'Å', // 0x88-0x8F
	'É', 'æ', 'Æ', 'ô', 'ö', 'ò', 'û', 'ù', // 0x90-0x97
	'İ', 'Ö', 'Ü', 'ø', '£', 'Ø', 'Ş', 'ş', // 0x98-0x9F
	'á', 'í', 'ó', 'ú', 'ñ', 'Ñ', 'Ğ', 'ğ', // 0xA0-0xA7
	'¿', '®', '¬', '½', '¼', '¡', '«', '»', // 0xA8-0xAF
	'░', '▒', '▓', '│', '┤', 'Á', 'Â', 'À', // 0xB0-0xB7
	'©', '╣', '║', '╗', '╝', '¢', '¥', '┐', // 0xB8-0xBF
	'└', '┴', '┬', '├', '─', '┼', 'ã', 'Ã', // 0xC0-0xC7
	'╚', '╔', '╩', '╦', '╠', '═', '╬', '¤', // 0xC8-0xCF
	'º', 'ª', 'Ê', 'Ë', 'È', 0, 'Í', 'Î', // 0xD0-0xD7
	'Ï', '┘', '┌', '█', '▄', '¦', 'Ì', '▀', // 0xD8-0xDF
	'Ó', 'ß', 'Ô', 'Ò', 'õ', 'Õ', 'µ', 0, // 0xE0-0xE7
	'×', 'Ú', 'Û', 'Ù', 'ì', 'ÿ', '¯', '´', // 0xE8-0xEF
	'­', '±', 0, '¾', '¶', '§', '÷', '¸', // 0xF0-0xF7
	'°', '¨', '·', '¹', '³', '²', '■', ' ', // 0xF8-0xFF
}

// cp857Encode is the reverse of cp857HighHalf, built once at init.
var cp857Encode = func() map[rune]byte {
	m := make(map[rune]byte, len(cp857HighHalf))
	for i, r := range cp857HighHalf {
		if r != 0 {
			m[r] = byte(0x80 + i)
		}
	}
	return m
}()

// EncodeRune transcodes a single rune to its CP857 printer byte.
func EncodeRune(r rune) byte {
	if b, ok := turkishOverrides[r]; ok {
		return b
	}
	if r < 0x80 {
		return byte(r)
	}
	if b, ok := cp857Encode[r]; ok {
		return b
	}
	return replacementByte
}

// Encode transcodes s to CP857 printer bytes, one byte per rune.
// Runes outside the code page become '?'; the function never fails.
func Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, EncodeRune(r))
	}
	return out
}
