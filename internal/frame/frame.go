// Package frame turns raw text frames received from the glove into readings.
package frame

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sod/glove/internal/reading"
)

const (
	// DelimiterWiFi separates values polled over HTTP.
	DelimiterWiFi = "-"
	// DelimiterSerial separates values read from the serial line.
	DelimiterSerial = ","
)

// ParseError reports a frame that could not be turned into a reading.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame %q: %s: %v", e.Raw, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed frame %q: %s", e.Raw, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser splits frames on a fixed delimiter into a fixed number of values.
type Parser struct {
	delimiter string
	arity     int
}

func NewParser(delimiter string, arity int) (*Parser, error) {
	if delimiter == "" {
		return nil, fmt.Errorf("frame delimiter is empty")
	}
	if arity <= 0 {
		return nil, fmt.Errorf("frame arity must be positive, got %d", arity)
	}
	return &Parser{delimiter: delimiter, arity: arity}, nil
}

func (p *Parser) Arity() int {
	return p.arity
}

func (p *Parser) Delimiter() string {
	return p.delimiter
}

// Parse returns the reading carried by raw, or a *ParseError when the token
// count differs from the arity or a token is not a number.
func (p *Parser) Parse(raw string) (reading.Reading, error) {
	return Parse(raw, p.delimiter, p.arity)
}

// Format renders r the way the device sends it.
func (p *Parser) Format(r reading.Reading) string {
	return strings.Join(r.Strings(), p.delimiter)
}

func Parse(raw, delimiter string, arity int) (reading.Reading, error) {
	text := strings.TrimSpace(raw)
	tokens := strings.Split(text, delimiter)
	if len(tokens) != arity {
		return nil, &ParseError{
			Raw:    raw,
			Reason: fmt.Sprintf("expected %d values, got %d", arity, len(tokens)),
		}
	}
	values := make(reading.Reading, arity)
	for i, token := range tokens {
		v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil {
			return nil, &ParseError{
				Raw:    raw,
				Reason: fmt.Sprintf("value %d is not a number", i+1),
				Err:    err,
			}
		}
		values[i] = v
	}
	return values, nil
}
