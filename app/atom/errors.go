package atom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrorKind classifies why a document could not be turned into a Feed.
type ErrorKind string

const (
	// MalformedMarkup means the tokenizer rejected the input as XML.
	MalformedMarkup ErrorKind = "malformed_markup"

	// InvalidRootElement means the outermost element is not <feed>.
	InvalidRootElement ErrorKind = "invalid_root_element"

	// TruncatedDocument means the input ended while an element was still open,
	// or before any element was seen.
	TruncatedDocument ErrorKind = "truncated_document"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrMalformedMarkup    = &Error{Kind: MalformedMarkup}
	ErrInvalidRootElement = &Error{Kind: InvalidRootElement}
	ErrTruncatedDocument  = &Error{Kind: TruncatedDocument}
)

// Error is the only error type returned by Read and its variants.
type Error struct {
	Kind    ErrorKind
	Element string // element being read when the failure was detected, if known
	Cause   error  // tokenizer error, if any
}

func (e *Error) Error() string {
	msg := "atom: " + string(e.Kind)
	if e.Element != "" {
		msg += fmt.Sprintf(" in <%s>", e.Element)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var atomErr *Error
	if errors.As(err, &atomErr) {
		return atomErr.Kind, true
	}
	return "", false
}

func errTruncated(element string) *Error {
	return &Error{Kind: TruncatedDocument, Element: element}
}

// classify maps a tokenizer failure onto the taxonomy. encoding/xml reports a
// premature end of input as a syntax error rather than io.EOF.
func classify(err error, element string) *Error {
	var syntaxErr *xml.SyntaxError
	if errors.Is(err, io.ErrUnexpectedEOF) || (errors.As(err, &syntaxErr) && strings.HasPrefix(syntaxErr.Msg, "unexpected EOF")) {
		return &Error{Kind: TruncatedDocument, Element: element, Cause: err}
	}
	return &Error{Kind: MalformedMarkup, Element: element, Cause: err}
}
