package feed

import "fmt"

// InputError reports a problem with the feed input itself: bad URL, empty
// or non-XML body, unrecognized dialect, or missing required fields. The
// message is user-facing and names the specific defect.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// ParseError reports XML the decoder itself rejected; the underlying
// parser message is preserved for the user.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("XML parsing failed: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError reports a fetch failure; Timeout distinguishes a slow feed
// from other transport failures for user messaging.
type NetworkError struct {
	Msg     string
	Timeout bool
}

func (e *NetworkError) Error() string { return e.Msg }
