// Package adf builds Atlassian Document Format documents, the rich-text
// structure Jira Cloud expects in issue description fields.
package adf

// Doc is the top-level ADF document. Version is always 1.
type Doc struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []Node `json:"content"`
}

// Node is any ADF block or inline node. Leaf text nodes set Text (and
// optionally Marks); container nodes set Content.
type Node struct {
	Attrs   map[string]any `json:"attrs,omitempty"`
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark decorates a text node (strong, em, link).
type Mark struct {
	Attrs map[string]any `json:"attrs,omitempty"`
	Type  string         `json:"type"`
}

func NewDoc(content ...Node) *Doc {
	return &Doc{Type: "doc", Version: 1, Content: content}
}

func Heading(level int, content ...Node) Node {
	return Node{Type: "heading", Attrs: map[string]any{"level": level}, Content: content}
}

func Paragraph(content ...Node) Node {
	return Node{Type: "paragraph", Content: content}
}

func BulletList(items ...Node) Node {
	return Node{Type: "bulletList", Content: items}
}

func ListItem(content ...Node) Node {
	return Node{Type: "listItem", Content: content}
}

func Text(text string) Node {
	return Node{Type: "text", Text: text}
}

func Strong(text string) Node {
	return Node{Type: "text", Text: text, Marks: []Mark{{Type: "strong"}}}
}

func Em(text string) Node {
	return Node{Type: "text", Text: text, Marks: []Mark{{Type: "em"}}}
}

// Link renders text as a hyperlink to href.
func Link(text, href string) Node {
	return Node{
		Type:  "text",
		Text:  text,
		Marks: []Mark{{Type: "link", Attrs: map[string]any{"href": href}}},
	}
}

// LinkCount reports the number of link-marked text nodes in the document.
// Used by callers that need to assert on reference-link cardinality.
func (d *Doc) LinkCount() int {
	return countLinks(d.Content)
}

func countLinks(nodes []Node) int {
	count := 0
	for _, n := range nodes {
		for _, m := range n.Marks {
			if m.Type == "link" {
				count++
			}
		}
		count += countLinks(n.Content)
	}
	return count
}
