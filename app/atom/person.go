package atom

// Person is an author or contributor.
type Person struct {
	Name  string  `json:"name"`
	URI   *string `json:"uri,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (p *Person) fromXML(c *Cursor, _ []Attr) error {
	*p = Person{}

	return readChildren(c, func(ev Event) error {
		var err error
		switch ev.Name {
		case "name":
			p.Name, err = readText(c, ev)
		case "uri":
			p.URI, err = readOptionalText(c, ev)
		case "email":
			p.Email, err = readOptionalText(c, ev)
		default:
			err = c.Skip()
		}
		return err
	})
}

type Category struct {
	Term   string  `json:"term"`
	Scheme *string `json:"scheme,omitempty"`
	Label  *string `json:"label,omitempty"`
}

func (cat *Category) fromXML(c *Cursor, attrs []Attr) error {
	term, _ := AttrValue(attrs, "term")
	*cat = Category{
		Term:   term,
		Scheme: optionalAttr(attrs, "scheme"),
		Label:  optionalAttr(attrs, "label"),
	}
	return c.Skip()
}

// DefaultRelation is the link relation implied when rel is absent.
const DefaultRelation = "alternate"

type Link struct {
	Href      string  `json:"href"`
	Rel       *string `json:"rel,omitempty"`
	MediaType *string `json:"type,omitempty"`
	HrefLang  *string `json:"hreflang,omitempty"`
	Title     *string `json:"title,omitempty"`
	Length    *string `json:"length,omitempty"`
}

func (l *Link) fromXML(c *Cursor, attrs []Attr) error {
	href, _ := AttrValue(attrs, "href")
	*l = Link{
		Href:      href,
		Rel:       optionalAttr(attrs, "rel"),
		MediaType: optionalAttr(attrs, "type"),
		HrefLang:  optionalAttr(attrs, "hreflang"),
		Title:     optionalAttr(attrs, "title"),
		Length:    optionalAttr(attrs, "length"),
	}
	return c.Skip()
}

// Relation returns Rel, or DefaultRelation when the link has none.
func (l Link) Relation() string {
	if l.Rel == nil || *l.Rel == "" {
		return DefaultRelation
	}
	return *l.Rel
}

// Generator identifies the software that produced the feed.
type Generator struct {
	Value   string  `json:"value"`
	URI     *string `json:"uri,omitempty"`
	Version *string `json:"version,omitempty"`
}

func (g *Generator) fromXML(c *Cursor, attrs []Attr) error {
	*g = Generator{
		URI:     optionalAttr(attrs, "uri"),
		Version: optionalAttr(attrs, "version"),
	}

	value, err := resolveText(c, Plain)
	if err != nil {
		return err
	}
	g.Value = value
	return nil
}
