package atom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, doc string) []Event {
	t.Helper()
	c := NewCursor(strings.NewReader(doc))
	var events []Event
	for {
		ev, err := c.Next()
		require.NoError(t, err)
		events = append(events, ev)
		if ev.Kind == EventEOF {
			return events
		}
	}
}

func TestCursorEvents(t *testing.T) {
	events := collect(t, `<?xml version="1.0"?>
<!-- comment -->
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:x="urn:x">
  <title type="text">  Hello  </title>
  <x:ext x:a="1"/>
</feed>`)

	want := []Event{
		{Kind: EventStart, Name: "feed", Attrs: []Attr{
			{Name: "xmlns", Value: "http://www.w3.org/2005/Atom"},
			{Name: "xmlns:x", Value: "urn:x"},
		}},
		{Kind: EventStart, Name: "title", Attrs: []Attr{{Name: "type", Value: "text"}}},
		{Kind: EventText, Text: "Hello"},
		{Kind: EventEnd, Name: "title"},
		{Kind: EventStart, Name: "x:ext", Attrs: []Attr{{Name: "x:a", Value: "1"}}},
		{Kind: EventEnd, Name: "x:ext"},
		{Kind: EventEnd, Name: "feed"},
		{Kind: EventEOF},
	}
	assert.Equal(t, want, events)
}

func TestCursorUndeclaredPrefix(t *testing.T) {
	events := collect(t, `<foo:bar><baz/></foo:bar>`)
	require.Len(t, events, 5)
	assert.Equal(t, "foo:bar", events[0].Name)
	assert.Equal(t, "baz", events[1].Name)
	assert.Equal(t, "foo:bar", events[3].Name)
}

func TestCursorPrefixRebinding(t *testing.T) {
	events := collect(t, `<a xmlns:p="urn:one"><p:b/><c xmlns:q="urn:one"><q:d/></c></a>`)
	var names []string
	for _, ev := range events {
		if ev.Kind == EventStart {
			names = append(names, ev.Name)
		}
	}
	assert.Equal(t, []string{"a", "p:b", "c", "q:d"}, names)
}

func TestCursorPrefixedEndTags(t *testing.T) {
	events := collect(t, `<a xmlns:h="urn:h"><h:div><h:p>Hi</h:p></h:div></a>`)

	var ends []string
	for _, ev := range events {
		if ev.Kind == EventEnd {
			ends = append(ends, ev.Name)
		}
	}
	assert.Equal(t, []string{"h:p", "h:div", "a"}, ends)
}

func TestCursorDefaultAndPrefixOnSameNamespace(t *testing.T) {
	events := collect(t, `<feed xmlns="urn:atom" xmlns:atom="urn:atom"><title/></feed>`)

	var names []string
	for _, ev := range events {
		if ev.Kind == EventStart || ev.Kind == EventEnd {
			names = append(names, ev.Name)
		}
	}
	assert.Equal(t, []string{"feed", "title", "title", "feed"}, names)

	// Declaration order does not matter.
	events = collect(t, `<feed xmlns:atom="urn:atom" xmlns="urn:atom"><title/></feed>`)
	assert.Equal(t, "feed", events[0].Name)
}

func TestCursorSkip(t *testing.T) {
	c := NewCursor(strings.NewReader(`<a><b><c>x</c><d/></b><e>y</e></a>`))

	ev, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", ev.Name)

	ev, err = c.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", ev.Name)
	assert.Equal(t, 2, c.Depth())

	require.NoError(t, c.Skip())
	assert.Equal(t, 1, c.Depth())

	ev, err = c.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Kind: EventStart, Name: "e"}, ev)
}

func TestCursorSkipTruncated(t *testing.T) {
	c := NewCursor(strings.NewReader(`<a><b><c>`))
	_, err := c.Next()
	require.NoError(t, err)
	_, err = c.Next()
	require.NoError(t, err)

	err = c.Skip()
	assert.ErrorIs(t, err, ErrTruncatedDocument)
}

func TestAttrValue(t *testing.T) {
	attrs := []Attr{{Name: "rel", Value: "self"}, {Name: "href", Value: ""}}

	v, ok := AttrValue(attrs, "href")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = AttrValue(attrs, "type")
	assert.False(t, ok)
	assert.Nil(t, optionalAttr(attrs, "type"))
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "start", EventStart.String())
	assert.Equal(t, "eof", EventEOF.String())
	assert.Equal(t, "EventKind(0)", EventKind(0).String())
}
