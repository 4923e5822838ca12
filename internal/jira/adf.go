package jira

import "strings"

// Atlassian Document Format nodes, just enough surface for issue
// descriptions.
type adfDoc struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string                 `json:"type"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Content []adfNode              `json:"content,omitempty"`
	Text    string                 `json:"text,omitempty"`
	Marks   []adfMark              `json:"marks,omitempty"`
}

type adfMark struct {
	Type string `json:"type"`
}

func textNode(text string, marks ...adfMark) adfNode {
	return adfNode{Type: "text", Text: text, Marks: marks}
}

// documentFromMarkdown converts the model's markdown-flavored description to
// an ADF document. The mapping is deliberately small: blocks are split on
// blank lines, "# " and "## " become headings, a block fully wrapped in **
// becomes a strong paragraph, everything else is a plain paragraph.
// Whitespace-only input yields an empty document, which the API accepts.
func documentFromMarkdown(text string) adfDoc {
	doc := adfDoc{Type: "doc", Version: 1, Content: []adfNode{}}
	if strings.TrimSpace(text) == "" {
		return doc
	}

	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		switch {
		case strings.HasPrefix(block, "# "):
			doc.Content = append(doc.Content, adfNode{
				Type:    "heading",
				Attrs:   map[string]interface{}{"level": 1},
				Content: []adfNode{textNode(block[2:])},
			})
		case strings.HasPrefix(block, "## "):
			doc.Content = append(doc.Content, adfNode{
				Type:    "heading",
				Attrs:   map[string]interface{}{"level": 2},
				Content: []adfNode{textNode(block[3:])},
			})
		case strings.HasPrefix(block, "**") && strings.HasSuffix(block, "**") && len(block) > 4:
			doc.Content = append(doc.Content, adfNode{
				Type:    "paragraph",
				Content: []adfNode{textNode(block[2:len(block)-2], adfMark{Type: "strong"})},
			})
		default:
			doc.Content = append(doc.Content, adfNode{
				Type:    "paragraph",
				Content: []adfNode{textNode(block)},
			})
		}
	}
	return doc
}
