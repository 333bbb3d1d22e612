package export

import (
	"golang.org/x/text/unicode/bidi"
)

// Direction is the base direction of a line or paragraph
type Direction int

const (
	RightToLeft Direction = iota
	LeftToRight
)

func (d Direction) String() string {
	if d == LeftToRight {
		return "ltr"
	}
	return "rtl"
}

// BaseDirection returns the direction of the first strong character in s.
// Text without a strong character is treated as right-to-left.
func BaseDirection(s string) Direction {
	for _, r := range s {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.L:
			return LeftToRight
		case bidi.R, bidi.AL:
			return RightToLeft
		}
	}
	return RightToLeft
}

var mirrors = map[rune]rune{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'<': '>', '>': '<',
	'«': '»', '»': '«',
}

// VisualOrder reorders a single logical line for left-to-right glyph
// placement, using the line's own base direction.
func VisualOrder(line string) string {
	return Reorder(line, BaseDirection(line))
}

// Reorder converts one line from logical to visual order for the given base
// direction. Explicit embedding controls are treated as neutrals. The line
// must not contain paragraph separators.
func Reorder(line string, base Direction) string {
	runes := []rune(line)
	if len(runes) == 0 {
		return line
	}

	classes := resolveWeak(runes, base)
	resolveNeutral(classes, base)
	levels := resolveLevels(runes, classes, base)

	for i, r := range runes {
		if levels[i]%2 == 1 {
			if m, ok := mirrors[r]; ok {
				runes[i] = m
			}
		}
	}

	reverseByLevel(runes, levels)
	return string(runes)
}

// resolveWeak applies the weak type rules and returns one class per rune
// reduced to L, R, EN, AN or a neutral.
func resolveWeak(runes []rune, base Direction) []bidi.Class {
	sos := bidi.R
	if base == LeftToRight {
		sos = bidi.L
	}

	classes := make([]bidi.Class, len(runes))
	for i, r := range runes {
		p, _ := bidi.LookupRune(r)
		c := p.Class()
		switch c {
		case bidi.Control, bidi.LRO, bidi.RLO, bidi.LRE, bidi.RLE, bidi.PDF,
			bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI:
			c = bidi.ON
		}
		classes[i] = c
	}

	// W1: non-spacing marks take the class of the previous character
	prev := sos
	for i, c := range classes {
		if c == bidi.NSM {
			classes[i] = prev
		}
		prev = classes[i]
	}

	// W2, W3: European numbers after Arabic letters become Arabic numbers
	last := sos
	for i, c := range classes {
		switch c {
		case bidi.L, bidi.R:
			last = c
		case bidi.AL:
			last = c
			classes[i] = bidi.R
		case bidi.EN:
			if last == bidi.AL {
				classes[i] = bidi.AN
			}
		}
	}

	// W4: a single separator between two numbers of the same type
	for i := 1; i+1 < len(classes); i++ {
		before, after := classes[i-1], classes[i+1]
		switch {
		case classes[i] == bidi.ES && before == bidi.EN && after == bidi.EN:
			classes[i] = bidi.EN
		case classes[i] == bidi.CS && before == bidi.EN && after == bidi.EN:
			classes[i] = bidi.EN
		case classes[i] == bidi.CS && before == bidi.AN && after == bidi.AN:
			classes[i] = bidi.AN
		}
	}

	// W5: terminators adjacent to European numbers
	for i := 0; i < len(classes); i++ {
		if classes[i] != bidi.ET {
			continue
		}
		j := i
		for j < len(classes) && classes[j] == bidi.ET {
			j++
		}
		if (i > 0 && classes[i-1] == bidi.EN) || (j < len(classes) && classes[j] == bidi.EN) {
			for k := i; k < j; k++ {
				classes[k] = bidi.EN
			}
		}
		i = j - 1
	}

	// W6: remaining separators and terminators become neutral
	for i, c := range classes {
		switch c {
		case bidi.ES, bidi.ET, bidi.CS:
			classes[i] = bidi.ON
		}
	}

	// W7: European numbers in a left-to-right context are treated as L
	last = sos
	for i, c := range classes {
		switch c {
		case bidi.L, bidi.R:
			last = c
		case bidi.EN:
			if last == bidi.L {
				classes[i] = bidi.L
			}
		}
	}
	return classes
}

func isNeutral(c bidi.Class) bool {
	switch c {
	case bidi.B, bidi.S, bidi.WS, bidi.ON, bidi.BN:
		return true
	}
	return false
}

// strongDir maps a resolved class to L or R. Numbers count as R.
func strongDir(c bidi.Class) bidi.Class {
	if c == bidi.L {
		return bidi.L
	}
	return bidi.R
}

// resolveNeutral applies N1 and N2: a run of neutrals between two characters
// of the same direction takes that direction, otherwise the base direction.
func resolveNeutral(classes []bidi.Class, base Direction) {
	embedding := bidi.R
	if base == LeftToRight {
		embedding = bidi.L
	}

	for i := 0; i < len(classes); i++ {
		if !isNeutral(classes[i]) {
			continue
		}
		j := i
		for j < len(classes) && isNeutral(classes[j]) {
			j++
		}

		before := embedding
		if i > 0 {
			before = strongDir(classes[i-1])
		}
		after := embedding
		if j < len(classes) {
			after = strongDir(classes[j])
		}

		dir := embedding
		if before == after {
			dir = before
		}
		for k := i; k < j; k++ {
			classes[k] = dir
		}
		i = j - 1
	}
}

// resolveLevels applies I1, I2 and the whitespace part of L1.
func resolveLevels(runes []rune, classes []bidi.Class, base Direction) []int {
	baseLevel := 1
	if base == LeftToRight {
		baseLevel = 0
	}

	levels := make([]int, len(classes))
	for i, c := range classes {
		switch {
		case baseLevel%2 == 0 && c == bidi.R:
			levels[i] = baseLevel + 1
		case baseLevel%2 == 0 && (c == bidi.AN || c == bidi.EN):
			levels[i] = baseLevel + 2
		case baseLevel%2 == 1 && (c == bidi.L || c == bidi.AN || c == bidi.EN):
			levels[i] = baseLevel + 1
		default:
			levels[i] = baseLevel
		}
	}

	// L1: segment separators and trailing whitespace go back to the base level
	trailing := true
	for i := len(runes) - 1; i >= 0; i-- {
		p, _ := bidi.LookupRune(runes[i])
		c := p.Class()
		switch {
		case c == bidi.S || c == bidi.B:
			levels[i] = baseLevel
			trailing = true
		case trailing && (c == bidi.WS || c == bidi.BN):
			levels[i] = baseLevel
		default:
			trailing = false
		}
	}
	return levels
}

// reverseByLevel applies L2: from the highest level down to the lowest odd
// level, reverse every run at that level or above.
func reverseByLevel(runes []rune, levels []int) {
	highest, lowestOdd := 0, 1<<30
	for _, l := range levels {
		if l > highest {
			highest = l
		}
		if l%2 == 1 && l < lowestOdd {
			lowestOdd = l
		}
	}

	for level := highest; level >= lowestOdd; level-- {
		for i := 0; i < len(runes); i++ {
			if levels[i] < level {
				continue
			}
			j := i
			for j < len(runes) && levels[j] >= level {
				j++
			}
			reverse(runes[i:j])
			reverseInts(levels[i:j])
			i = j
		}
	}
}

func reverse(r []rune) {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}

func reverseInts(l []int) {
	for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
		l[i], l[j] = l[j], l[i]
	}
}

// OrdererFunc adapts a function to the Orderer interface.
type OrdererFunc func(line string, base Direction) string

func (f OrdererFunc) Reorder(line string, base Direction) string { return f(line, base) }
