// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

const (
	// CR and LF are control characters, respectively coded 0x0D (13 decimal) and 0x0A (10 decimal).
	// NEXUS files wrap long trees, so both are treated as whitespace between tokens.

	// CR is 0x0D or '\r'
	CR byte = 13

	// LF is 0x0A or '\n'
	LF byte = 10
)

func init() {
	for ch := 'A'; ch <= 'Z'; ch++ {
		taxonBytes[ch] = true
	}
	for ch := 'a'; ch <= 'z'; ch++ {
		taxonBytes[ch] = true
	}
	for ch := '0'; ch <= '9'; ch++ {
		taxonBytes[ch] = true
	}
	for _, ch := range []byte{'_', '-', '.'} {
		taxonBytes[ch] = true
	}
}

var (
	// taxonBytes are the bytes allowed in an unquoted taxon name.
	taxonBytes = [256]bool{}
)

func istaxon(ch byte) bool {
	return taxonBytes[ch]
}

func isdigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isspace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == CR || ch == LF
}
