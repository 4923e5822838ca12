package deck

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	commonerrors "deck2jira/internal/common/errors"
)

const drawingMLNamespace = "http://schemas.openxmlformats.org/drawingml/2006/main"

var slideEntryPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PPTXReader reads .pptx files directly: the format is a zip archive with
// one flat XML document per slide under ppt/slides/.
type PPTXReader struct{}

func NewPPTXReader() *PPTXReader {
	return &PPTXReader{}
}

// Open parses the presentation and buffers every slide's text. Any
// open/parse failure is a fatal DECK_READ_FAILED error; no partial deck
// is ever returned.
func (r *PPTXReader) Open(path string) (*Deck, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, commonerrors.NewDeckReadError(path, err)
	}
	defer archive.Close()

	var slides []Slide
	for _, entry := range archive.File {
		m := slideEntryPattern.FindStringSubmatch(entry.Name)
		if m == nil {
			continue
		}
		number, _ := strconv.Atoi(m[1])

		f, err := entry.Open()
		if err != nil {
			return nil, commonerrors.NewDeckReadError(path, fmt.Errorf("read slide %d: %w", number, err))
		}
		paragraphs, err := extractParagraphs(f)
		f.Close()
		if err != nil {
			return nil, commonerrors.NewDeckReadError(path, fmt.Errorf("parse slide %d: %w", number, err))
		}

		slides = append(slides, Slide{Number: number, Paragraphs: paragraphs})
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].Number < slides[j].Number })

	return &Deck{Path: path, Slides: slides}, nil
}

// extractParagraphs collects the text runs of a slide XML document,
// grouped by DrawingML paragraph (<a:p>) so each paragraph becomes one
// line of the slide text.
func extractParagraphs(src io.Reader) ([]string, error) {
	dec := xml.NewDecoder(src)

	var paragraphs []string
	var current strings.Builder
	inParagraph := false
	inRunText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == drawingMLNamespace {
				switch t.Name.Local {
				case "p":
					inParagraph = true
					current.Reset()
				case "t":
					inRunText = inParagraph
				}
			}
		case xml.EndElement:
			if t.Name.Space == drawingMLNamespace {
				switch t.Name.Local {
				case "p":
					if text := strings.TrimSpace(current.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
					inParagraph = false
				case "t":
					inRunText = false
				}
			}
		case xml.CharData:
			if inRunText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
