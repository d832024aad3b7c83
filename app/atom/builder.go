package atom

// entity is implemented by every schema type. fromXML is called with the cursor just
// past the entity's start tag and returns once the matching end tag has been
// consumed.
type entity[T any] interface {
	*T
	fromXML(c *Cursor, attrs []Attr) error
}

func build[T any, P entity[T]](c *Cursor, attrs []Attr) (T, error) {
	var v T
	if err := P(&v).fromXML(c, attrs); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func buildOptional[T any, P entity[T]](c *Cursor, attrs []Attr) (*T, error) {
	v, err := build[T, P](c, attrs)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func appendBuilt[T any, P entity[T]](c *Cursor, ev Event, dst *[]T) error {
	v, err := build[T, P](c, ev.Attrs)
	if err != nil {
		return err
	}
	*dst = append(*dst, v)
	return nil
}

// readChildren drives the loop shared by all entities: each child start tag
// goes to child, which must consume the whole child element (Skip for
// anything it does not recognize). Stray text between children is ignored.
func readChildren(c *Cursor, child func(ev Event) error) error {
	element := c.current()
	for {
		ev, err := c.Next()
		if err != nil {
			return err
		}

		switch ev.Kind {
		case EventStart:
			if err := child(ev); err != nil {
				return err
			}
		case EventEnd:
			return nil
		case EventEOF:
			return errTruncated(element)
		}
	}
}
