package export

import "unicode"

// forms holds the presentation forms of one letter. ini and med are zero for
// letters that only join to the preceding letter.
type forms struct {
	iso, fin, ini, med rune
}

var arabicForms = map[rune]forms{
	0x0621: {0xFE80, 0, 0, 0}, // hamza, non-joining
	0x0622: {0xFE81, 0xFE82, 0, 0},
	0x0623: {0xFE83, 0xFE84, 0, 0},
	0x0624: {0xFE85, 0xFE86, 0, 0},
	0x0625: {0xFE87, 0xFE88, 0, 0},
	0x0626: {0xFE89, 0xFE8A, 0xFE8B, 0xFE8C},
	0x0627: {0xFE8D, 0xFE8E, 0, 0},
	0x0628: {0xFE8F, 0xFE90, 0xFE91, 0xFE92},
	0x0629: {0xFE93, 0xFE94, 0, 0},
	0x062A: {0xFE95, 0xFE96, 0xFE97, 0xFE98},
	0x062B: {0xFE99, 0xFE9A, 0xFE9B, 0xFE9C},
	0x062C: {0xFE9D, 0xFE9E, 0xFE9F, 0xFEA0},
	0x062D: {0xFEA1, 0xFEA2, 0xFEA3, 0xFEA4},
	0x062E: {0xFEA5, 0xFEA6, 0xFEA7, 0xFEA8},
	0x062F: {0xFEA9, 0xFEAA, 0, 0},
	0x0630: {0xFEAB, 0xFEAC, 0, 0},
	0x0631: {0xFEAD, 0xFEAE, 0, 0},
	0x0632: {0xFEAF, 0xFEB0, 0, 0},
	0x0633: {0xFEB1, 0xFEB2, 0xFEB3, 0xFEB4},
	0x0634: {0xFEB5, 0xFEB6, 0xFEB7, 0xFEB8},
	0x0635: {0xFEB9, 0xFEBA, 0xFEBB, 0xFEBC},
	0x0636: {0xFEBD, 0xFEBE, 0xFEBF, 0xFEC0},
	0x0637: {0xFEC1, 0xFEC2, 0xFEC3, 0xFEC4},
	0x0638: {0xFEC5, 0xFEC6, 0xFEC7, 0xFEC8},
	0x0639: {0xFEC9, 0xFECA, 0xFECB, 0xFECC},
	0x063A: {0xFECD, 0xFECE, 0xFECF, 0xFED0},
	0x0640: {0x0640, 0x0640, 0x0640, 0x0640}, // tatweel
	0x0641: {0xFED1, 0xFED2, 0xFED3, 0xFED4},
	0x0642: {0xFED5, 0xFED6, 0xFED7, 0xFED8},
	0x0643: {0xFED9, 0xFEDA, 0xFEDB, 0xFEDC},
	0x0644: {0xFEDD, 0xFEDE, 0xFEDF, 0xFEE0},
	0x0645: {0xFEE1, 0xFEE2, 0xFEE3, 0xFEE4},
	0x0646: {0xFEE5, 0xFEE6, 0xFEE7, 0xFEE8},
	0x0647: {0xFEE9, 0xFEEA, 0xFEEB, 0xFEEC},
	0x0648: {0xFEED, 0xFEEE, 0, 0},
	0x0649: {0xFEEF, 0xFEF0, 0, 0},
	0x064A: {0xFEF1, 0xFEF2, 0xFEF3, 0xFEF4},

	// Persian and Urdu letters common in loanwords and names
	0x067E: {0xFB56, 0xFB57, 0xFB58, 0xFB59},
	0x0686: {0xFB7A, 0xFB7B, 0xFB7C, 0xFB7D},
	0x0698: {0xFB8A, 0xFB8B, 0, 0},
	0x06A9: {0xFB8E, 0xFB8F, 0xFB90, 0xFB91},
	0x06AF: {0xFB92, 0xFB93, 0xFB94, 0xFB95},
	0x06CC: {0xFBFC, 0xFBFD, 0xFBFE, 0xFBFF},
}

const lam = 0x0644

// lamAlef maps the alef that follows a lam to the ligature's isolated form.
// The final form is the next code point.
var lamAlef = map[rune]rune{
	0x0622: 0xFEF5,
	0x0623: 0xFEF7,
	0x0625: 0xFEF9,
	0x0627: 0xFEFB,
}

// joinsPrev reports whether r connects to the letter before it.
func joinsPrev(r rune) bool {
	f, ok := arabicForms[r]
	return ok && f.fin != 0
}

// joinsNext reports whether r connects to the letter after it.
func joinsNext(r rune) bool {
	f, ok := arabicForms[r]
	return ok && f.ini != 0
}

func transparent(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// Shape replaces Arabic letters with their contextual presentation forms and
// merges lam-alef pairs into ligatures. Text is kept in logical order; other
// scripts pass through unchanged.
func Shape(text string) string {
	in := []rune(text)
	out := make([]rune, 0, len(in))

	for i := 0; i < len(in); i++ {
		r := in[i]
		f, ok := arabicForms[r]
		if !ok {
			out = append(out, r)
			continue
		}

		prev := neighbour(in, i, -1)
		connectPrev := prev != 0 && joinsNext(prev) && f.fin != 0

		if r == lam && i+1 < len(in) {
			if lig, ok := lamAlef[in[i+1]]; ok {
				if connectPrev {
					lig++
				}
				out = append(out, lig)
				i++
				continue
			}
		}

		next := neighbour(in, i, +1)
		connectNext := next != 0 && joinsPrev(next) && f.ini != 0

		switch {
		case connectPrev && connectNext:
			out = append(out, f.med)
		case connectPrev:
			out = append(out, f.fin)
		case connectNext:
			out = append(out, f.ini)
		default:
			out = append(out, f.iso)
		}
	}
	return string(out)
}

// neighbour returns the closest non-transparent rune before (step -1) or
// after (step +1) position i, or 0 at the text boundary.
func neighbour(in []rune, i, step int) rune {
	for j := i + step; j >= 0 && j < len(in); j += step {
		if !transparent(in[j]) {
			return in[j]
		}
	}
	return 0
}

// ShaperFunc adapts a function to the Shaper interface.
type ShaperFunc func(string) string

func (f ShaperFunc) Shape(s string) string { return f(s) }
