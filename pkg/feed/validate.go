package feed

// Validate classifies a parsed document and checks the minimum required
// fields for its dialect. It has no side effects; a failed check returns
// an InputError whose message names the missing piece.
func Validate(doc *Document) error {
	switch {
	case doc.RSS != nil:
		if doc.RSS.Channel == nil {
			return &InputError{Msg: "RSS feed missing required <channel> element"}
		}
		if doc.RSS.Channel.Title.Value == "" || extractLink(doc.RSS.Channel.Links) == "" {
			return &InputError{Msg: "RSS channel missing required title or link"}
		}
	case doc.Atom != nil:
		if doc.Atom.Title.Value == "" {
			return &InputError{Msg: "Atom feed missing required <title> element"}
		}
	case doc.RDF != nil:
		if doc.RDF.Channel == nil {
			return &InputError{Msg: "RDF feed missing required <channel> element"}
		}
	default:
		return &InputError{Msg: "unrecognized feed format, must be RSS 2.0, Atom, or RDF"}
	}
	return nil
}
