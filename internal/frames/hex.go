package frames

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseHex reads the video converter's hex dump: '#' or '//' comment lines,
// whitespace-separated hex bytes with optional 0x prefixes and trailing
// commas, blank lines between frames. It returns the raw byte stream;
// framing is applied by FromPacked or FromGray.
func ParseHex(r io.Reader) ([]byte, error) {
	var out []byte
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
			continue
		}
		for _, tok := range strings.Fields(text) {
			tok = strings.TrimSuffix(tok, ",")
			tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
			if tok == "" {
				continue
			}
			v, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("frames: line %d: bad hex byte %q", line, tok)
			}
			out = append(out, byte(v))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("frames: read hex dump: %w", err)
	}
	return out, nil
}
