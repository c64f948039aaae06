// Package trace reads memory access traces.
//
// Each line of a trace has the form
//
//	<access-type> <hex-address> <instructions-since-last-access>
//
// for example "l 0x1fffff50 1". The access type is "l" (load) or "s"
// (store). The instruction count is optional. Blank lines and lines starting
// with '#' are ignored.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// AccessKind is the type of a memory access.
type AccessKind byte

const (
	Load  AccessKind = 'l'
	Store AccessKind = 's'
)

func (k AccessKind) String() string {
	switch k {
	case Load:
		return "load"
	case Store:
		return "store"
	default:
		return fmt.Sprintf("AccessKind(%q)", byte(k))
	}
}

// Record is one parsed trace line.
type Record struct {
	Kind         AccessKind
	Addr         uint64
	Instructions uint64
}

// ParseError reports a malformed trace line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("trace line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("trace line %q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	// ErrFieldCount is returned for lines without an access type and address.
	ErrFieldCount = errors.New("expected <type> <address> [<instructions>]")
	// ErrAccessKind is returned for access types other than l and s.
	ErrAccessKind = errors.New("unknown access type")
)

// ParseLine parses a single trace line. Address range checking is left to
// the cache, so any 64-bit hexadecimal value is accepted.
func ParseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 {
		return Record{}, &ParseError{Text: line, Err: ErrFieldCount}
	}

	if len(fields[0]) != 1 {
		return Record{}, &ParseError{Text: line, Err: ErrAccessKind}
	}
	kind := AccessKind(fields[0][0])
	if kind != Load && kind != Store {
		return Record{}, &ParseError{Text: line, Err: ErrAccessKind}
	}

	hex := fields[1]
	if strings.HasPrefix(hex, "0x") || strings.HasPrefix(hex, "0X") {
		hex = hex[2:]
	}
	addr, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return Record{}, &ParseError{Text: line, Err: fmt.Errorf("bad address: %w", err)}
	}

	record := Record{Kind: kind, Addr: addr}
	if len(fields) == 3 {
		record.Instructions, err = strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return Record{}, &ParseError{Text: line, Err: fmt.Errorf("bad instruction count: %w", err)}
		}
	}

	return record, nil
}

// Reader streams records from a trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		record, err := ParseLine(text)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				parseErr.Line = r.line
			}
			return Record{}, err
		}

		return record, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return Record{}, io.EOF
}

// ReadAddresses returns the addresses of every record in r, in order.
func ReadAddresses(r io.Reader) ([]uint64, error) {
	reader := NewReader(r)
	addrs := []uint64{}

	for {
		record, err := reader.Next()
		if err == io.EOF {
			return addrs, nil
		}
		if err != nil {
			return nil, err
		}

		addrs = append(addrs, record.Addr)
	}
}

// LoadFile reads the addresses of the trace file at path.
func LoadFile(path string) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	addrs, err := ReadAddresses(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return addrs, nil
}
