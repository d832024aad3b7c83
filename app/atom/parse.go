// Package atom reads Atom Syndication Format documents (RFC 4287) into Feed
// values.
//
// The reader walks the document once. Each entity builds itself from the
// events of its own subtree and hands the cursor to the builders of the
// entities it contains. Elements outside the Atom vocabulary are skipped
// together with everything they contain. Singular elements that repeat
// keep the value of their last occurrence.
//
// Every failure is an *Error of one of three kinds and aborts the whole
// read; there are no partial results.
package atom

import (
	"bytes"
	"io"
	"strings"

	xpp "github.com/mmcdole/goxpp"
)

const rootElement = "feed"

// Parser reads Atom documents. The zero value is ready to use and is safe
// for concurrent use; each read gets its own Cursor.
type Parser struct {
	// CharsetReader decodes documents whose XML declaration names an
	// encoding other than UTF-8. Nil uses the IANA registry.
	CharsetReader func(charset string, input io.Reader) (io.Reader, error)
}

func NewParser() *Parser {
	return &Parser{}
}

// Read parses one Atom document from r.
func (p *Parser) Read(r io.Reader) (*Feed, error) {
	var cr xpp.CharsetReader = charsetReader
	if p.CharsetReader != nil {
		cr = p.CharsetReader
	}
	return readFeed(newCursor(r, cr))
}

func (p *Parser) ReadString(s string) (*Feed, error) {
	return p.Read(strings.NewReader(s))
}

func (p *Parser) ReadBytes(b []byte) (*Feed, error) {
	return p.Read(bytes.NewReader(b))
}

var defaultParser Parser

// Read parses one Atom document from r with the default Parser.
func Read(r io.Reader) (*Feed, error) {
	return defaultParser.Read(r)
}

// ReadString parses an Atom document held in memory.
func ReadString(s string) (*Feed, error) {
	return defaultParser.ReadString(s)
}

func ReadBytes(b []byte) (*Feed, error) {
	return defaultParser.ReadBytes(b)
}

// readFeed looks only at the first element: anything but <feed> fails
// before its content is read.
func readFeed(c *Cursor) (*Feed, error) {
	for {
		ev, err := c.Next()
		if err != nil {
			return nil, err
		}

		switch ev.Kind {
		case EventStart:
			if ev.Name != rootElement {
				return nil, &Error{Kind: InvalidRootElement, Element: ev.Name}
			}
			return buildOptional[Feed](c, ev.Attrs)
		case EventEOF:
			return nil, errTruncated("")
		}
	}
}
