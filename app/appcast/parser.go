package appcast

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/akarpov/castwatch/app/version"
)

// Appcast element and attribute names. Namespaced names are the namespace
// URI joined to the local name with a '#' separator, the convention of
// namespace-aware stream parsers.
const (
	sparkleNS = "http://www.andymatuschak.org/xml-namespaces/sparkle"

	nodeChannel     = "channel"
	nodeItem        = "item"
	nodeTitle       = "title"
	nodeDescription = "description"
	nodeEnclosure   = "enclosure"
	nodeRelNotes    = sparkleNS + "#releaseNotesLink"

	attrURL          = "url"
	attrVersion      = sparkleNS + "#version"
	attrShortVersion = sparkleNS + "#shortVersionString"
)

// ParseError reports a malformed appcast document. When the underlying XML
// error carries position information, Line is set.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("appcast parse error at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("appcast parse error: %s", e.Reason)
}

func newParseError(err error) *ParseError {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ParseError{Line: syntaxErr.Line, Reason: syntaxErr.Msg}
	}
	return &ParseError{Reason: err.Error()}
}

// session holds all state for one document parse. Nothing here outlives a
// single Parse call, so concurrent parses never observe each other's
// best-so-far version.
type session struct {
	doc         Appcast
	bestVersion string

	// Element nesting depths. Counters rather than booleans so that
	// repeated or nested elements unwind correctly.
	inChannel     int
	inItem        int
	inRelNotes    int
	inTitle       int
	inDescription int
}

// Parse consumes an appcast document and returns the release with the
// highest version among all items, together with the document's title,
// description and release-notes link text. All items are visited; a later
// item with a higher version replaces an earlier winner.
//
// A document that parses cleanly but contains no enclosure with a version
// attribute yields an Appcast for which HasEntry reports false. A malformed
// document yields a *ParseError and no partial result.
func Parse(data []byte) (*Appcast, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	s := &session{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newParseError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			s.startElement(t)
		case xml.EndElement:
			s.endElement(t)
		case xml.CharData:
			s.text(t)
		}
	}

	return &s.doc, nil
}

func (s *session) startElement(t xml.StartElement) {
	name := qualifiedName(t.Name)

	switch {
	case name == nodeChannel:
		s.inChannel++
	case s.inChannel > 0 && name == nodeItem:
		s.inItem++
	case s.inItem > 0:
		switch name {
		case nodeRelNotes:
			s.inRelNotes++
		case nodeTitle:
			s.inTitle++
		case nodeDescription:
			s.inDescription++
		case nodeEnclosure:
			s.enclosure(t.Attr)
		}
	}
}

func (s *session) endElement(t xml.EndElement) {
	name := qualifiedName(t.Name)

	switch {
	case s.inItem > 0 && name == nodeRelNotes:
		s.inRelNotes--
	case s.inItem > 0 && name == nodeTitle:
		s.inTitle--
	case s.inItem > 0 && name == nodeDescription:
		s.inDescription--
	case s.inChannel > 0 && name == nodeItem:
		s.inItem--
	case name == nodeChannel:
		s.inChannel--
	}
}

func (s *session) text(t xml.CharData) {
	switch {
	case s.inRelNotes > 0:
		s.doc.ReleaseNotesURL += string(t)
	case s.inTitle > 0:
		s.doc.Title += string(t)
	case s.inDescription > 0:
		s.doc.Description += string(t)
	}
}

// enclosure evaluates one release-marker element. The candidate is adopted
// only when it carries a version attribute and that version compares higher
// than the best release seen so far in this session.
func (s *session) enclosure(attrs []xml.Attr) {
	candidate := ""
	for _, attr := range attrs {
		if qualifiedName(attr.Name) == attrVersion {
			candidate = attr.Value
		}
	}
	if candidate == "" {
		return
	}
	if s.bestVersion != "" && version.Compare(s.bestVersion, candidate) >= 0 {
		return
	}

	s.bestVersion = candidate
	s.doc.DownloadURL = ""
	s.doc.ShortVersionString = ""
	for _, attr := range attrs {
		switch qualifiedName(attr.Name) {
		case attrURL:
			s.doc.DownloadURL = attr.Value
		case attrVersion:
			s.doc.Version = attr.Value
		case attrShortVersion:
			s.doc.ShortVersionString = attr.Value
		}
	}
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + "#" + n.Local
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported document charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
