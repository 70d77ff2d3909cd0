package regex

import "fmt"

// charBlock is a contiguous code point range that is also contiguous as a
// UTF-8 byte sequence: matching it reduces to a concatenation of per-byte
// range tests. Adapted from the teacher's utf8.GenCharBlocks (vartan's
// utf8 package), which exists for exactly this reason: a code point range
// like <U+0000..U+07FF> is NOT a contiguous byte range once UTF-8 encoded
// (<00..7F> then <C2 80..DF BF>), so it has to be split at the encoding
// length boundaries before it can drive a byte-level NFA.
type charBlock struct {
	from, to []byte
}

// splitUTF8Range splits the code point range from..to into blocks whose
// UTF-8 encodings are themselves contiguous byte ranges, skipping the
// surrogate gap U+D800..U+DFFF (ill-formed in UTF-8).
func splitUTF8Range(from, to rune) ([]charBlock, error) {
	cps, err := splitCodePoint(from, to)
	if err != nil {
		return nil, err
	}
	blocks := make([]charBlock, len(cps))
	for i, r := range cps {
		blocks[i] = charBlock{
			from: []byte(string(r.from)),
			to:   []byte(string(r.to)),
		}
	}
	return blocks, nil
}

type cpRange struct {
	from, to rune
}

func splitCodePoint(from, to rune) ([]cpRange, error) {
	if from > to {
		return nil, fmt.Errorf("code point range must be from <= to: U+%X..U+%X", from, to)
	}
	if from < 0x0000 || from > 0x10ffff || to < 0x0000 || to > 0x10ffff {
		return nil, fmt.Errorf("code point must be >=U+0000 and <=U+10FFFF: U+%X..U+%X", from, to)
	}
	if from >= 0xd800 && from <= 0xdfff || to >= 0xd800 && to <= 0xdfff {
		return nil, fmt.Errorf("surrogate code points U+D800..U+DFFF are not allowed in UTF-8: U+%X..U+%X", from, to)
	}

	cur := cpRange{from: from, to: to}
	var rs []cpRange
	for cur.from <= cur.to {
		r := cpRange{from: cur.from, to: cur.to}
		// https://www.unicode.org/versions/Unicode13.0.0/ch03.pdf > 3.9 Unicode Encoding Forms > Table 3-7.
		switch {
		case cur.from <= 0x007f && cur.to > 0x007f:
			r.to = 0x007f
		case cur.from <= 0x07ff && cur.to > 0x07ff:
			r.to = 0x07ff
		case cur.from <= 0x0fff && cur.to > 0x0fff:
			r.to = 0x0fff
		case cur.from <= 0xcfff && cur.to > 0xcfff:
			r.to = 0xcfff
		case cur.from <= 0xd7ff && cur.to > 0xd7ff:
			r.to = 0xd7ff
		case cur.from <= 0xffff && cur.to > 0xffff:
			r.to = 0xffff
		case cur.from <= 0x3ffff && cur.to > 0x3ffff:
			r.to = 0x3ffff
		case cur.from <= 0xfffff && cur.to > 0xfffff:
			r.to = 0xfffff
		}
		rs = append(rs, r)
		cur.from = r.to + 1
		if cur.from >= 0xd800 && cur.from <= 0xdfff {
			cur.from = 0xe000
		}
	}
	return rs, nil
}
