package atom

// Feed is an Atom <feed> document.
type Feed struct {
	Title        string     `json:"title"`
	ID           string     `json:"id"`
	Updated      string     `json:"updated"`
	Authors      []Person   `json:"authors"`
	Categories   []Category `json:"categories"`
	Contributors []Person   `json:"contributors"`
	Generator    *Generator `json:"generator,omitempty"`
	Icon         *string    `json:"icon,omitempty"`
	Links        []Link     `json:"links"`
	Logo         *string    `json:"logo,omitempty"`
	Rights       *string    `json:"rights,omitempty"`
	Subtitle     *string    `json:"subtitle,omitempty"`
	Entries      []Entry    `json:"entries"`
}

func (f *Feed) fromXML(c *Cursor, _ []Attr) error {
	*f = Feed{
		Authors:      []Person{},
		Categories:   []Category{},
		Contributors: []Person{},
		Links:        []Link{},
		Entries:      []Entry{},
	}

	return readChildren(c, func(ev Event) error {
		var err error
		switch ev.Name {
		case "id":
			f.ID, err = readText(c, ev)
		case "title":
			f.Title, err = readText(c, ev)
		case "updated":
			f.Updated, err = readText(c, ev)
		case "author":
			err = appendBuilt(c, ev, &f.Authors)
		case "category":
			err = appendBuilt(c, ev, &f.Categories)
		case "contributor":
			err = appendBuilt(c, ev, &f.Contributors)
		case "generator":
			f.Generator, err = buildOptional[Generator](c, ev.Attrs)
		case "icon":
			f.Icon, err = readOptionalText(c, ev)
		case "link":
			err = appendBuilt(c, ev, &f.Links)
		case "logo":
			f.Logo, err = readOptionalText(c, ev)
		case "rights":
			f.Rights, err = readOptionalText(c, ev)
		case "subtitle":
			f.Subtitle, err = readOptionalText(c, ev)
		case "entry":
			err = appendBuilt(c, ev, &f.Entries)
		default:
			err = c.Skip()
		}
		return err
	})
}

// Source is the metadata of the feed an entry was copied from.
type Source struct {
	Title        string     `json:"title"`
	ID           string     `json:"id"`
	Updated      string     `json:"updated"`
	Authors      []Person   `json:"authors"`
	Categories   []Category `json:"categories"`
	Contributors []Person   `json:"contributors"`
	Generator    *Generator `json:"generator,omitempty"`
	Icon         *string    `json:"icon,omitempty"`
	Links        []Link     `json:"links"`
	Logo         *string    `json:"logo,omitempty"`
	Rights       *string    `json:"rights,omitempty"`
	Subtitle     *string    `json:"subtitle,omitempty"`
}

func (s *Source) fromXML(c *Cursor, _ []Attr) error {
	*s = Source{
		Authors:      []Person{},
		Categories:   []Category{},
		Contributors: []Person{},
		Links:        []Link{},
	}

	return readChildren(c, func(ev Event) error {
		var err error
		switch ev.Name {
		case "id":
			s.ID, err = readText(c, ev)
		case "title":
			s.Title, err = readText(c, ev)
		case "updated":
			s.Updated, err = readText(c, ev)
		case "author":
			err = appendBuilt(c, ev, &s.Authors)
		case "category":
			err = appendBuilt(c, ev, &s.Categories)
		case "contributor":
			err = appendBuilt(c, ev, &s.Contributors)
		case "generator":
			s.Generator, err = buildOptional[Generator](c, ev.Attrs)
		case "icon":
			s.Icon, err = readOptionalText(c, ev)
		case "link":
			err = appendBuilt(c, ev, &s.Links)
		case "logo":
			s.Logo, err = readOptionalText(c, ev)
		case "rights":
			s.Rights, err = readOptionalText(c, ev)
		case "subtitle":
			s.Subtitle, err = readOptionalText(c, ev)
		default:
			err = c.Skip()
		}
		return err
	})
}
