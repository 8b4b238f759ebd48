package transform

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteParams appends one line of space-separated parameters to w, the
// one-line-per-frame ASCII layout that ReadParams reads back. This is a thin text-format helper outside the core's
// hot path; a one-line-per-frame format doesn't warrant pulling in a
// structured serialization library.
func WriteParams(w io.Writer, p Params) error {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}

// ReadParams reads all parameter lines from r, one Params per line.
func ReadParams(r io.Reader, k Kind) ([]Params, error) {
	var out []Params
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != k.NumParams() {
			return nil, fmt.Errorf("transform: line has %d fields, want %d for %s", len(fields), k.NumParams(), k)
		}
		p := Identity(k)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("transform: parsing field %d: %w", i, err)
			}
			p[i] = v
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
