package atom

import (
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/text/encoding/ianaindex"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

type EventKind int

const (
	EventStart EventKind = iota + 1
	EventEnd
	EventText
	EventEOF
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventText:
		return "text"
	case EventEOF:
		return "eof"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Attr is an attribute with its name written the way the document wrote it
// (prefix included).
type Attr struct {
	Name  string
	Value string
}

// Event is one structural step through the document.
type Event struct {
	Kind  EventKind
	Name  string // qualified element name for EventStart and EventEnd
	Attrs []Attr // EventStart only
	Text  string // EventText only, trimmed and never empty
}

// Cursor is a forward-only stream of Events over one document. Self-closing
// elements arrive as a start immediately followed by an end, comments and
// processing instructions are dropped, and whitespace-only text is suppressed.
//
// A Cursor must not be shared between goroutines.
type Cursor struct {
	pp     *xpp.XMLPullParser
	scopes []nsScope // innermost last
	open   []string
}

// nsScope holds the namespace bindings in effect for one element.
type nsScope struct {
	defaultNS string
	prefixes  map[string]string // namespace URI -> prefix
}

// NewCursor returns a Cursor reading from r. Documents that declare a
// non-UTF-8 encoding are decoded through the IANA charset registry.
func NewCursor(r io.Reader) *Cursor {
	return newCursor(r, charsetReader)
}

func newCursor(r io.Reader, cr xpp.CharsetReader) *Cursor {
	return &Cursor{
		pp:     xpp.NewXMLPullParser(r, true, cr),
		scopes: []nsScope{{prefixes: map[string]string{xmlNamespace: "xml"}}},
	}
}

// Next advances to the next event.
func (c *Cursor) Next() (Event, error) {
	for {
		ev, err := c.pp.Next()
		if err != nil {
			return Event{}, classify(err, c.current())
		}

		switch ev {
		case xpp.StartTag:
			c.pushScope(c.pp.Attrs)
			name := c.qualify(c.pp.Space, c.pp.Name)
			c.open = append(c.open, name)
			return Event{Kind: EventStart, Name: name, Attrs: c.attrs()}, nil
		case xpp.EndTag:
			// The tokenizer does not report the namespace of end tags; the
			// matching start was recorded on the open stack.
			name := c.current()
			c.popScope()
			if len(c.open) > 0 {
				c.open = c.open[:len(c.open)-1]
			}
			return Event{Kind: EventEnd, Name: name}, nil
		case xpp.Text:
			text := strings.TrimSpace(c.pp.Text)
			if text == "" {
				continue
			}
			return Event{Kind: EventText, Text: text}, nil
		case xpp.EndDocument:
			return Event{Kind: EventEOF}, nil
		}
	}
}

// Skip consumes events up to and including the end of the element whose
// start was returned last, however deeply its content nests.
func (c *Cursor) Skip() error {
	element := c.current()
	depth := 0
	for {
		ev, err := c.Next()
		if err != nil {
			return err
		}

		switch ev.Kind {
		case EventStart:
			depth++
		case EventEnd:
			if depth == 0 {
				return nil
			}
			depth--
		case EventEOF:
			return errTruncated(element)
		}
	}
}

// Depth is the number of currently open elements.
func (c *Cursor) Depth() int {
	return len(c.open)
}

func (c *Cursor) current() string {
	if len(c.open) == 0 {
		return ""
	}
	return c.open[len(c.open)-1]
}

func (c *Cursor) pushScope(attrs []xml.Attr) {
	scope := c.scopes[len(c.scopes)-1]
	cloned := false
	for _, attr := range attrs {
		uri := strings.TrimSpace(attr.Value)
		switch {
		case attr.Name.Space == "xmlns":
			if !cloned {
				scope.prefixes = maps.Clone(scope.prefixes)
				cloned = true
			}
			scope.prefixes[uri] = attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			scope.defaultNS = uri
		}
	}
	c.scopes = append(c.scopes, scope)
}

func (c *Cursor) popScope() {
	if len(c.scopes) > 1 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// qualify rebuilds the written name from the namespace URI the tokenizer
// resolved. A URI bound as the default namespace yields the bare local name
// even when a prefix is bound to it too. Undeclared prefixes are left in
// place by the tokenizer.
func (c *Cursor) qualify(space, local string) string {
	if space == "" {
		return local
	}
	scope := c.scopes[len(c.scopes)-1]
	if space == scope.defaultNS {
		return local
	}
	prefix, ok := scope.prefixes[space]
	if !ok {
		return space + ":" + local
	}
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func (c *Cursor) attrs() []Attr {
	if len(c.pp.Attrs) == 0 {
		return nil
	}
	attrs := make([]Attr, 0, len(c.pp.Attrs))
	for _, attr := range c.pp.Attrs {
		var name string
		switch attr.Name.Space {
		case "":
			name = attr.Name.Local
		case "xmlns":
			name = "xmlns:" + attr.Name.Local
		default:
			name = c.qualify(attr.Name.Space, attr.Name.Local)
		}
		attrs = append(attrs, Attr{Name: name, Value: attr.Value})
	}
	return attrs
}

// AttrValue returns the value of the named attribute.
func AttrValue(attrs []Attr, name string) (string, bool) {
	for _, attr := range attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

func optionalAttr(attrs []Attr, name string) *string {
	if v, ok := AttrValue(attrs, name); ok {
		return &v
	}
	return nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		// ASCII has no decoder of its own and is a subset of UTF-8.
		if strings.EqualFold(label, "us-ascii") || strings.EqualFold(label, "ascii") {
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
