package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/atom-comb/app/atom"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// Parser turns a fetched document into feed metadata and items. Atom
// documents go through the native reader; anything whose root is not <feed>
// is handed to gofeed.
type Parser struct {
	atomParser   *atom.Parser
	gofeedParser *gofeed.Parser
	policy       *bluemonday.Policy
}

func NewParser() *Parser {
	return &Parser{
		atomParser:   atom.NewParser(),
		gofeedParser: gofeed.NewParser(),
		policy:       bluemonday.UGCPolicy(),
	}
}

func (p *Parser) Run(data []byte, sanitize bool) (*Metadata, []Item, error) {
	doc, err := p.atomParser.ReadBytes(data)
	switch {
	case err == nil:
		metadata, items := p.fromAtom(doc, sanitize)
		return metadata, items, nil
	case errors.Is(err, atom.ErrInvalidRootElement):
		return p.fromGofeed(data, sanitize)
	default:
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}
}

func (p *Parser) fromAtom(doc *atom.Feed, sanitize bool) (*Metadata, []Item) {
	metadata := &Metadata{
		Format:        FormatAtom,
		Title:         doc.Title,
		Link:          alternateLink(doc.Links),
		Description:   deref(doc.Subtitle),
		ImageURL:      cmp.Or(deref(doc.Logo), deref(doc.Icon)),
		FeedUpdatedAt: parseTimestamp(doc.Updated),
	}

	items := make([]Item, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		item := p.normalizeEntry(entry, doc.Authors, sanitize)
		item.ContentHash = p.generateContentHash(item)
		items = append(items, item)
	}

	return metadata, items
}

func (p *Parser) normalizeEntry(entry atom.Entry, feedAuthors []atom.Person, sanitize bool) Item {
	link := alternateLink(entry.Links)
	item := Item{
		GUID:        cmp.Or(entry.ID, link),
		Title:       entry.Title,
		Link:        link,
		Description: deref(entry.Summary),
		UpdatedAt:   parseTimestamp(entry.Updated),
	}

	if entry.Content != nil && entry.Content.Src == nil {
		item.Content = entry.Content.Value
		if sanitize && entry.Content.Model != atom.Plain {
			item.Content = p.policy.Sanitize(item.Content)
		}
	}
	if sanitize && entry.SummaryModel != atom.Plain && item.Description != "" {
		item.Description = p.policy.Sanitize(item.Description)
	}

	if published := parseTimestamp(deref(entry.Published)); published != nil {
		item.PublishedAt = *published
	} else if item.UpdatedAt != nil {
		item.PublishedAt = *item.UpdatedAt
	}

	// An entry without authors inherits them from its source, then its feed.
	authors := entry.Authors
	if len(authors) == 0 && entry.Source != nil {
		authors = entry.Source.Authors
	}
	if len(authors) == 0 {
		authors = feedAuthors
	}
	for _, person := range authors {
		if author := p.formatAuthor(person.Name, deref(person.Email)); author != "" {
			item.Authors = append(item.Authors, author)
		}
	}

	for _, category := range entry.Categories {
		if term := strings.TrimSpace(category.Term); term != "" {
			item.Categories = append(item.Categories, term)
		}
	}

	for _, l := range entry.Links {
		if l.Relation() != "enclosure" {
			continue
		}
		item.EnclosureURL = l.Href
		item.EnclosureType = deref(l.MediaType)
		if length, err := strconv.ParseInt(deref(l.Length), 10, 64); err == nil {
			item.EnclosureLength = length
		}
		break
	}

	return item
}

func (p *Parser) fromGofeed(data []byte, sanitize bool) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Format:        feed.FeedType,
		Title:         feed.Title,
		Link:          feed.Link,
		Description:   feed.Description,
		Language:      feed.Language,
		FeedUpdatedAt: cmp.Or(feed.UpdatedParsed, feed.PublishedParsed),
	}

	if feed.Image != nil {
		metadata.ImageURL = feed.Image.URL
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		normalized := p.normalizeItem(item, sanitize)
		normalized.ContentHash = p.generateContentHash(normalized)
		items = append(items, normalized)
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, sanitize bool) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
	}

	if sanitize {
		normalized.Description = p.policy.Sanitize(normalized.Description)
		normalized.Content = p.policy.Sanitize(normalized.Content)
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = *item.PublishedParsed
	}

	if item.UpdatedParsed != nil {
		normalized.UpdatedAt = item.UpdatedParsed
	}

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author == nil {
				continue
			}
			if formatted := p.formatAuthor(author.Name, author.Email); formatted != "" {
				normalized.Authors = append(normalized.Authors, formatted)
			}
		}
	} else if item.Author != nil {
		if formatted := p.formatAuthor(item.Author.Name, item.Author.Email); formatted != "" {
			normalized.Authors = append(normalized.Authors, formatted)
		}
	}

	normalized.Categories = item.Categories

	// RSS 2.0 allows only one enclosure per item
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		enclosure := item.Enclosures[0]
		normalized.EnclosureURL = enclosure.URL
		normalized.EnclosureType = enclosure.Type
		if length, err := strconv.ParseInt(enclosure.Length, 10, 64); err == nil {
			normalized.EnclosureLength = length
		}
	}

	return normalized
}

func (p *Parser) generateContentHash(item Item) string {
	hash := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return hex.EncodeToString(hash[:])
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s (%s)", email, name)
	case name != "":
		return name
	default:
		return email
	}
}

// alternateLink picks the first link whose relation is "alternate", falling
// back to the first link of any relation.
func alternateLink(links []atom.Link) string {
	for _, l := range links {
		if l.Relation() == atom.DefaultRelation {
			return l.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

// parseTimestamp reads an Atom date construct. Unparseable or empty values
// yield nil.
func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
