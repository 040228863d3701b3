package rainbowhat

import (
	"unicode"

	"github.com/smazurov/weatherhat/internal/hat"
)

// decimalPoint is the DP segment bit of a 14-segment digit.
const decimalPoint uint16 = 0x4000

// font maps characters to 14-segment patterns, bit 0 being segment A.
// Characters missing from the table render blank.
var font = map[rune]uint16{
	' ': 0x0000,
	'-': 0x00C0,
	'_': 0x0008,
	'+': 0x12C0,
	'*': 0x3FC0,
	'/': 0x0C00,
	'0': 0x0C3F,
	'1': 0x0006,
	'2': 0x00DB,
	'3': 0x008F,
	'4': 0x00E6,
	'5': 0x2069,
	'6': 0x00FD,
	'7': 0x0007,
	'8': 0x00FF,
	'9': 0x00EF,
	'A': 0x00F7,
	'B': 0x128F,
	'C': 0x0039,
	'D': 0x120F,
	'E': 0x00F9,
	'F': 0x0071,
	'G': 0x00BD,
	'H': 0x00F6,
	'I': 0x1209,
	'J': 0x001E,
	'K': 0x2470,
	'L': 0x0038,
	'M': 0x0536,
	'N': 0x2136,
	'O': 0x003F,
	'P': 0x00F3,
	'Q': 0x203F,
	'R': 0x20F3,
	'S': 0x00ED,
	'T': 0x1201,
	'U': 0x003E,
	'V': 0x0C30,
	'W': 0x2836,
	'X': 0x2D00,
	'Y': 0x1500,
	'Z': 0x0C09,
}

// Encode converts text to the column patterns of the display. Text is
// left-aligned, upper-cased and cut after hat.DisplayWidth characters.
func Encode(text string) [hat.DisplayWidth]uint16 {
	var cols [hat.DisplayWidth]uint16
	pos := 0
	dotted := false

	for _, r := range text {
		if r == '.' {
			if pos > 0 && !dotted {
				cols[pos-1] |= decimalPoint
				dotted = true
				continue
			}
			if pos >= hat.DisplayWidth {
				break
			}
			cols[pos] = decimalPoint
			pos++
			dotted = true
			continue
		}

		if pos >= hat.DisplayWidth {
			break
		}
		cols[pos] = font[unicode.ToUpper(r)]
		pos++
		dotted = false
	}

	return cols
}
