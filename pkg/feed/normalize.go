package feed

import (
	"bytes"
	"strings"

	"github.com/ewiq/leatly/pkg/domain"
)

// Normalize parses raw feed bytes and maps them into the canonical feed
// shape. Errors name the specific defect: empty body, non-XML body,
// decoder rejection, unrecognized dialect, or missing required fields.
// Missing optional fields never fail normalization; they degrade to empty
// values.
func Normalize(data []byte) (*domain.Feed, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &InputError{Msg: "feed returned empty content"}
	}
	if !looksLikeXML(trimmed) {
		return nil, &InputError{Msg: "invalid XML format, content does not appear to be XML"}
	}

	doc, err := ParseDocument(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	feed := normalizeDocument(doc)
	if feed.Channel.Title == "" && feed.Channel.Link == "" {
		return nil, &InputError{Msg: "feed does not contain minimum required data (title or link)"}
	}
	return feed, nil
}

// looksLikeXML is a cheap pre-parse gate: the body must start with a tag
// and either carry an XML declaration or one of the known root elements.
func looksLikeXML(data []byte) bool {
	if !bytes.HasPrefix(data, []byte("<")) {
		return false
	}
	s := string(data)
	return strings.Contains(s, "<?xml") ||
		strings.Contains(s, "<rss") ||
		strings.Contains(s, "<feed") ||
		strings.Contains(s, "<rdf:RDF") ||
		strings.Contains(s, "<RDF")
}

func normalizeDocument(doc *Document) *domain.Feed {
	switch {
	case doc.RSS != nil:
		return normalizeRSS(doc.RSS.Channel)
	case doc.Atom != nil:
		return normalizeAtom(doc.Atom)
	default:
		return normalizeRDF(doc.RDF)
	}
}

func normalizeRSS(ch *rssChannel) *domain.Feed {
	feed := &domain.Feed{
		Channel: domain.Channel{
			Title:         ch.Title.Value,
			Description:   firstText(ch.Description, ch.ContentEncoded),
			Link:          extractLink(ch.Links),
			Language:      ch.Language.Value,
			PubDate:       ch.PubDate.Value,
			LastBuildDate: ch.LastBuildDate.Value,
			Image:         extractImageURL(ch.Image),
		},
		Items: make([]domain.Item, 0, len(ch.Items)),
	}
	for i := range ch.Items {
		feed.Items = append(feed.Items, normalizeItem(&ch.Items[i]))
	}
	return feed
}

// normalizeItem handles RSS 2.0 items; RDF items share the shape but have
// their own, stricter field sources in normalizeRDFItem.
func normalizeItem(it *itemXML) domain.Item {
	link := extractLink(it.Links)
	if link == "" {
		link = it.About
	}
	guid := firstText(it.GUID, it.ID)
	return domain.Item{
		Title:       it.Title.Value,
		Description: extractDescription(it.Description, it.ContentEncoded, it.Summary),
		Link:        link,
		PubDate:     firstText(it.PubDate, it.DCDate, it.Published, it.Updated),
		Author:      firstText(it.Author, it.DCCreator, it.ITunesAuthor),
		Categories:  extractCategories(it.Categories),
		Image:       extractItemImage(it.MediaContent, it.MediaThumb, it.Enclosure, it.ITunesImage, it.Description.Value),
		GUID:        guid,
	}
}

func normalizeAtom(f *atomRoot) *domain.Feed {
	feed := &domain.Feed{
		Channel: domain.Channel{
			Title:         f.Title.Value,
			Description:   f.Subtitle.Value,
			Link:          extractLink(f.Links),
			Language:      f.Language.Value,
			PubDate:       firstText(f.Published, f.Updated),
			LastBuildDate: f.Updated.Value,
			Image:         firstImage(f.Icon, f.Logo),
		},
		Items: make([]domain.Item, 0, len(f.Entries)),
	}
	for i := range f.Entries {
		feed.Items = append(feed.Items, normalizeAtomEntry(&f.Entries[i]))
	}
	return feed
}

func normalizeAtomEntry(e *atomEntry) domain.Item {
	// Atom allows multiple authors; join the names
	var names []string
	for _, a := range e.Authors {
		if a.Name.Value != "" {
			names = append(names, a.Name.Value)
		}
	}
	return domain.Item{
		Title:       e.Title.Value,
		Description: extractDescription(e.Description, e.ContentEncoded, e.Summary),
		Link:        extractLink(e.Links),
		PubDate:     firstText(e.Published, e.Updated),
		Author:      strings.Join(names, ", "),
		Categories:  extractCategories(e.Categories),
		Image:       extractItemImage(e.MediaContent, e.MediaThumb, e.Enclosure, e.ITunesImage, firstText(e.Description, e.Summary)),
		GUID:        e.ID.Value,
	}
}

func normalizeRDF(r *rdfRoot) *domain.Feed {
	ch := r.Channel
	feed := &domain.Feed{
		Channel: domain.Channel{
			Title:       ch.Title.Value,
			Description: ch.Description.Value,
			Link:        extractLink(ch.Links),
			Language:    ch.DCLanguage.Value,
			PubDate:     ch.DCDate.Value,
			Image:       extractImageURL(ch.Image),
		},
		Items: make([]domain.Item, 0, len(r.Items)),
	}
	for i := range r.Items {
		feed.Items = append(feed.Items, normalizeRDFItem(&r.Items[i]))
	}
	return feed
}

func normalizeRDFItem(it *itemXML) domain.Item {
	link := extractLink(it.Links)
	if link == "" {
		link = it.About
	}
	return domain.Item{
		Title:       it.Title.Value,
		Description: extractDescription(it.Description, it.ContentEncoded, it.Summary),
		Link:        link,
		PubDate:     it.DCDate.Value,
		Author:      it.DCCreator.Value,
		Categories:  extractCategories(it.Categories),
		Image:       extractItemImage(it.MediaContent, it.MediaThumb, it.Enclosure, it.ITunesImage, it.Description.Value),
		GUID:        it.About,
	}
}
