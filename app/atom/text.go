package atom

import (
	"strings"
)

// ContentModel is how a text-bearing element carries its payload.
type ContentModel int

const (
	// Plain text, type="text" or no type.
	Plain ContentModel = iota
	// EscapedMarkup is entity-escaped HTML, type="html".
	EscapedMarkup
	// InlineMarkup is child elements kept as a serialized fragment,
	// type="xhtml" or an XML media type on <content>.
	InlineMarkup
)

func (m ContentModel) String() string {
	switch m {
	case EscapedMarkup:
		return "html"
	case InlineMarkup:
		return "xhtml"
	default:
		return "text"
	}
}

func (m ContentModel) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ContentModel) UnmarshalText(b []byte) error {
	*m = textModel(string(b))
	return nil
}

// textModel reads the type attribute of a text construct (title, subtitle,
// rights, summary).
func textModel(typ string) ContentModel {
	switch strings.TrimSpace(typ) {
	case "html":
		return EscapedMarkup
	case "xhtml":
		return InlineMarkup
	default:
		return Plain
	}
}

// contentModel reads the type attribute of <content>, which may also be a
// media type.
func contentModel(typ string) ContentModel {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = strings.TrimSpace(typ[:i])
	}
	switch {
	case typ == "", typ == "text":
		return Plain
	case typ == "html":
		return EscapedMarkup
	case typ == "xhtml":
		return InlineMarkup
	case strings.HasSuffix(typ, "+xml"), strings.HasSuffix(typ, "/xml"):
		return InlineMarkup
	default:
		return Plain
	}
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// resolveText consumes the rest of the current leaf element and returns its
// payload. Text runs at any depth are concatenated; with
// InlineMarkup nested elements are written back out as markup instead.
// A present but empty element resolves to "".
func resolveText(c *Cursor, model ContentModel) (string, error) {
	element := c.current()
	var buf strings.Builder
	depth := 0
	for {
		ev, err := c.Next()
		if err != nil {
			return "", err
		}

		switch ev.Kind {
		case EventStart:
			depth++
			if model == InlineMarkup {
				writeStartTag(&buf, ev)
			}
		case EventEnd:
			if depth == 0 {
				return buf.String(), nil
			}
			depth--
			if model == InlineMarkup {
				buf.WriteString("</")
				buf.WriteString(ev.Name)
				buf.WriteByte('>')
			}
		case EventText:
			if model == InlineMarkup {
				textEscaper.WriteString(&buf, ev.Text)
			} else {
				buf.WriteString(ev.Text)
			}
		case EventEOF:
			return "", errTruncated(element)
		}
	}
}

func writeStartTag(buf *strings.Builder, ev Event) {
	buf.WriteByte('<')
	buf.WriteString(ev.Name)
	for _, attr := range ev.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(attr.Name)
		buf.WriteString(`="`)
		attrEscaper.WriteString(buf, attr.Value)
		buf.WriteByte('"')
	}
	buf.WriteByte('>')
}

// readText resolves a text construct, taking the content model from its
// own type attribute.
func readText(c *Cursor, ev Event) (string, error) {
	typ, _ := AttrValue(ev.Attrs, "type")
	return resolveText(c, textModel(typ))
}

func readOptionalText(c *Cursor, ev Event) (*string, error) {
	s, err := readText(c, ev)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
