package parser

import (
	"fmt"
	"strings"
)

// ParsingError reports one DDL statement the parser could not
// understand, with the offending text attached for diagnostics.
type ParsingError struct {
	DDL string
	Msg string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("cannot parse DDL statement %q: %s", e.DDL, e.Msg)
}

// MultipleParsingErrors aggregates several failures from one statement
// batch.
type MultipleParsingErrors struct {
	Errors []error
}

func (e *MultipleParsingErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d DDL statements could not be parsed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *MultipleParsingErrors) Unwrap() []error { return e.Errors }
