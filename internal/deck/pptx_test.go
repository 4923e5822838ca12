package deck

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "deck2jira/internal/common/errors"
)

const slideXMLTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>%s</p:spTree></p:cSld>
</p:sld>`

func shapeXML(paragraphs ...string) string {
	body := ""
	for _, p := range paragraphs {
		body += fmt.Sprintf(`<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, p)
	}
	return `<p:sp><p:txBody>` + body + `</p:txBody></p:sp>`
}

func writePPTX(t *testing.T, slides map[int]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for number, shapes := range slides {
		entry, err := w.Create(fmt.Sprintf("ppt/slides/slide%d.xml", number))
		require.NoError(t, err)
		_, err = entry.Write([]byte(fmt.Sprintf(slideXMLTemplate, shapes)))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestPPTXReader_Open(t *testing.T) {
	path := writePPTX(t, map[int]string{
		1: shapeXML("Quarterly roadmap"),
		2: shapeXML("Sprint review", "Issue: camera misaligned"),
		3: shapeXML("Thanks!"),
	})

	deck, err := NewPPTXReader().Open(path)
	require.NoError(t, err)
	require.Len(t, deck.Slides, 3)

	// Slides come back ordered by number regardless of zip entry order.
	for i, slide := range deck.Slides {
		assert.Equal(t, i+1, slide.Number)
	}

	assert.Equal(t, "Sprint review\nIssue: camera misaligned", deck.Slides[1].Text())
}

func TestPPTXReader_Open_SplitRunsJoinWithinParagraph(t *testing.T) {
	// PowerPoint often splits one visual line into several runs; they must
	// land on a single line so line-anchored markers still match.
	shapes := `<p:sp><p:txBody><a:p><a:r><a:t>Issue: </a:t></a:r><a:r><a:t>camera misaligned</a:t></a:r></a:p></p:txBody></p:sp>`
	path := writePPTX(t, map[int]string{1: shapes})

	deck, err := NewPPTXReader().Open(path)
	require.NoError(t, err)
	require.Len(t, deck.Slides, 1)
	assert.Equal(t, "Issue: camera misaligned", deck.Slides[0].Text())
}

func TestPPTXReader_Open_MissingFile(t *testing.T) {
	_, err := NewPPTXReader().Open(filepath.Join(t.TempDir(), "nope.pptx"))
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeDeckReadFailed, stdErr.Code)
	assert.True(t, commonerrors.IsFatal(stdErr.Code))
}

func TestPPTXReader_Open_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pptx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o644))

	_, err := NewPPTXReader().Open(path)
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeDeckReadFailed, stdErr.Code)
}
