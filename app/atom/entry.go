package atom

// Entry is one <entry> of a feed.
type Entry struct {
	Title        string       `json:"title"`
	ID           string       `json:"id"`
	Updated      string       `json:"updated"`
	Authors      []Person     `json:"authors"`
	Categories   []Category   `json:"categories"`
	Contributors []Person     `json:"contributors"`
	Links        []Link       `json:"links"`
	Published    *string      `json:"published,omitempty"`
	Rights       *string      `json:"rights,omitempty"`
	Source       *Source      `json:"source,omitempty"`
	Summary      *string      `json:"summary,omitempty"`
	SummaryModel ContentModel `json:"summary_model,omitempty"` // model of Summary, Plain when absent
	Content      *Content     `json:"content,omitempty"`
}

func (e *Entry) fromXML(c *Cursor, _ []Attr) error {
	*e = Entry{
		Authors:      []Person{},
		Categories:   []Category{},
		Contributors: []Person{},
		Links:        []Link{},
	}

	return readChildren(c, func(ev Event) error {
		var err error
		switch ev.Name {
		case "id":
			e.ID, err = readText(c, ev)
		case "title":
			e.Title, err = readText(c, ev)
		case "updated":
			e.Updated, err = readText(c, ev)
		case "author":
			err = appendBuilt(c, ev, &e.Authors)
		case "category":
			err = appendBuilt(c, ev, &e.Categories)
		case "contributor":
			err = appendBuilt(c, ev, &e.Contributors)
		case "link":
			err = appendBuilt(c, ev, &e.Links)
		case "published":
			e.Published, err = readOptionalText(c, ev)
		case "rights":
			e.Rights, err = readOptionalText(c, ev)
		case "source":
			e.Source, err = buildOptional[Source](c, ev.Attrs)
		case "summary":
			typ, _ := AttrValue(ev.Attrs, "type")
			e.SummaryModel = textModel(typ)
			e.Summary, err = readOptionalText(c, ev)
		case "content":
			e.Content, err = buildOptional[Content](c, ev.Attrs)
		default:
			err = c.Skip()
		}
		return err
	})
}

// Content is the body of an entry. Value holds the text for Plain and
// EscapedMarkup, or the serialized child markup for InlineMarkup. Content
// with a Src is out-of-line and usually has an empty Value.
type Content struct {
	Value       string       `json:"value"`
	ContentType *string      `json:"type,omitempty"`
	Src         *string      `json:"src,omitempty"`
	Model       ContentModel `json:"model"`
}

func (ct *Content) fromXML(c *Cursor, attrs []Attr) error {
	*ct = Content{
		ContentType: optionalAttr(attrs, "type"),
		Src:         optionalAttr(attrs, "src"),
	}
	if ct.ContentType != nil {
		ct.Model = contentModel(*ct.ContentType)
	}

	value, err := resolveText(c, ct.Model)
	if err != nil {
		return err
	}
	ct.Value = value
	return nil
}

// IsInline reports whether Value is serialized markup.
func (ct *Content) IsInline() bool {
	return ct.Model == InlineMarkup
}
