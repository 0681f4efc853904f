// Package feed turns raw RSS 2.0, Atom and RDF bytes from arbitrary,
// often non-conforming sources into one normalized representation.
// Decoding goes through a typed intermediate schema per dialect; field
// extraction then operates on a small closed set of node shapes instead of
// duck-typing the parsed tree.
package feed

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// TextNode captures element text regardless of shape: plain chardata,
// CDATA, or text nested one level down (some feeds wrap values in an extra
// element). Direct text wins over nested text.
type TextNode struct {
	Value string
}

// UnmarshalXML implements xml.Unmarshaler.
func (n *TextNode) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var direct, nested strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if depth == 0 {
				direct.Write(t)
			} else {
				nested.Write(t)
			}
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				v := strings.TrimSpace(direct.String())
				if v == "" {
					v = strings.TrimSpace(nested.String())
				}
				n.Value = v
				return nil
			}
			depth--
		}
	}
}

// LinkNode is a link in any of its observed shapes: plain text content
// (RSS), or an element with href/rel attributes (Atom).
type LinkNode struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

// CategoryNode is a category in either text or attribute-term form.
type CategoryNode struct {
	Term string `xml:"term,attr"`
	Text string `xml:",chardata"`
}

// ImageNode covers channel-level image conventions: a plain URL string, a
// nested <url> block (RSS <image>), or an href attribute (itunes:image,
// Atom logo links).
type ImageNode struct {
	Href string   `xml:"href,attr"`
	URL  TextNode `xml:"url"`
	Text string   `xml:",chardata"`
}

// MediaNode is a media:content or media:thumbnail element.
type MediaNode struct {
	URL    string `xml:"url,attr"`
	Medium string `xml:"medium,attr"`
}

// EnclosureNode is an RSS enclosure.
type EnclosureNode struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// itemXML is the shared item shape for RSS 2.0 and RDF items; RDF items
// additionally carry the rdf:about attribute used as guid of last resort.
type itemXML struct {
	About          string         `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# about,attr"`
	Title          TextNode       `xml:"title"`
	Links          []LinkNode     `xml:"link"`
	Description    TextNode       `xml:"description"`
	ContentEncoded TextNode       `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Summary        TextNode       `xml:"summary"`
	PubDate        TextNode       `xml:"pubDate"`
	DCDate         TextNode       `xml:"http://purl.org/dc/elements/1.1/ date"`
	Published      TextNode       `xml:"published"`
	Updated        TextNode       `xml:"updated"`
	Author         TextNode       `xml:"author"`
	DCCreator      TextNode       `xml:"http://purl.org/dc/elements/1.1/ creator"`
	ITunesAuthor   TextNode       `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
	Categories     []CategoryNode `xml:"category"`
	GUID           TextNode       `xml:"guid"`
	ID             TextNode       `xml:"id"`
	MediaContent   []MediaNode    `xml:"http://search.yahoo.com/mrss/ content"`
	MediaThumb     []MediaNode    `xml:"http://search.yahoo.com/mrss/ thumbnail"`
	Enclosure      *EnclosureNode `xml:"enclosure"`
	ITunesImage    *ImageNode     `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
}

type rssChannel struct {
	Title          TextNode   `xml:"title"`
	Links          []LinkNode `xml:"link"`
	Description    TextNode   `xml:"description"`
	ContentEncoded TextNode   `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Language       TextNode   `xml:"language"`
	PubDate        TextNode   `xml:"pubDate"`
	LastBuildDate  TextNode   `xml:"lastBuildDate"`
	Image          *ImageNode `xml:"image"`
	Items          []itemXML  `xml:"item"`
}

type rssRoot struct {
	Channel *rssChannel `xml:"channel"`
}

type atomPerson struct {
	Name TextNode `xml:"name"`
}

type atomEntry struct {
	Title          TextNode       `xml:"title"`
	Links          []LinkNode     `xml:"link"`
	Description    TextNode       `xml:"description"`
	ContentEncoded TextNode       `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Summary        TextNode       `xml:"summary"`
	Published      TextNode       `xml:"published"`
	Updated        TextNode       `xml:"updated"`
	Authors        []atomPerson   `xml:"author"`
	Categories     []CategoryNode `xml:"category"`
	ID             TextNode       `xml:"id"`
	MediaContent   []MediaNode    `xml:"http://search.yahoo.com/mrss/ content"`
	MediaThumb     []MediaNode    `xml:"http://search.yahoo.com/mrss/ thumbnail"`
	Enclosure      *EnclosureNode `xml:"enclosure"`
	ITunesImage    *ImageNode     `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
}

type atomRoot struct {
	Title     TextNode    `xml:"title"`
	Subtitle  TextNode    `xml:"subtitle"`
	Links     []LinkNode  `xml:"link"`
	Language  TextNode    `xml:"language"`
	Published TextNode    `xml:"published"`
	Updated   TextNode    `xml:"updated"`
	Icon      *ImageNode  `xml:"icon"`
	Logo      *ImageNode  `xml:"logo"`
	Entries   []atomEntry `xml:"entry"`
}

type rdfChannel struct {
	Title       TextNode   `xml:"title"`
	Links       []LinkNode `xml:"link"`
	Description TextNode   `xml:"description"`
	DCLanguage  TextNode   `xml:"http://purl.org/dc/elements/1.1/ language"`
	DCDate      TextNode   `xml:"http://purl.org/dc/elements/1.1/ date"`
	Image       *ImageNode `xml:"image"`
}

// rdfRoot holds RDF (RSS 1.0) documents where items are siblings of the
// channel under the root element.
type rdfRoot struct {
	Channel *rdfChannel `xml:"channel"`
	Items   []itemXML   `xml:"item"`
}

// Document is the parsed representation of a feed before dialect
// normalization; exactly one of the roots is set for a recognized format,
// none for an unrecognized one.
type Document struct {
	RSS  *rssRoot
	Atom *atomRoot
	RDF  *rdfRoot
}

// ParseDocument decodes raw XML into the dialect document matching its
// root element. Decoding is tolerant: non-strict mode, HTML entities,
// auto-closed tags and non-UTF-8 charsets are accepted. A document with a
// root other than rss/feed/rdf:RDF parses into an empty Document; the
// validator reports it as unrecognized.
func ParseDocument(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.AutoClose = xml.HTMLAutoClose
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel

	doc := &Document{}
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return doc, nil
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "rss":
			var root rssRoot
			if err := d.DecodeElement(&root, &se); err != nil {
				return nil, &ParseError{Err: err}
			}
			doc.RSS = &root
		case "feed":
			var root atomRoot
			if err := d.DecodeElement(&root, &se); err != nil {
				return nil, &ParseError{Err: err}
			}
			doc.Atom = &root
		case "RDF":
			var root rdfRoot
			if err := d.DecodeElement(&root, &se); err != nil {
				return nil, &ParseError{Err: err}
			}
			doc.RDF = &root
		default:
			// unknown root, leave the document empty
		}
		return doc, nil
	}
}
