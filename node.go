package mdstream

// Node is an element or inline with its spans resolved to text. It is the
// serialisable form used by the command line tool.
type Node struct {
	Type      string     `json:"type" yaml:"type"`
	Level     int        `json:"level,omitempty" yaml:"level,omitempty"`
	Text      string     `json:"text,omitempty" yaml:"text,omitempty"`
	Lang      string     `json:"lang,omitempty" yaml:"lang,omitempty"`
	Detected  bool       `json:"detected,omitempty" yaml:"detected,omitempty"`
	URL       string     `json:"url,omitempty" yaml:"url,omitempty"`
	Children  []Node     `json:"children,omitempty" yaml:"children,omitempty"`
	Header    []string   `json:"header,omitempty" yaml:"header,omitempty"`
	Rows      [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Pending   string     `json:"pending,omitempty" yaml:"pending,omitempty"`
	Tentative bool       `json:"tentative,omitempty" yaml:"tentative,omitempty"`
}

// Node type names.
const (
	NodeHeading       = "heading"
	NodeParagraph     = "paragraph"
	NodeCodeBlock     = "code_block"
	NodeTable         = "table"
	NodeThematicBreak = "thematic_break"
	NodeText          = "text"
	NodeBold          = "bold"
	NodeItalic        = "italic"
	NodeBoldItalic    = "bold_italic"
	NodeStrikethrough = "strikethrough"
	NodeCode          = "code"
	NodeLink          = "link"
	NodeImage         = "image"
	NodeLineBreak     = "line_break"
)

// ToNode resolves el against src, the parser buffer it came from.
func ToNode(src string, el Element) Node {
	switch el := el.(type) {
	case Heading:
		return Node{Type: NodeHeading, Level: el.Level, Children: inlineNodes(src, el.Content)}
	case Paragraph:
		return Node{Type: NodeParagraph, Children: inlineNodes(src, el.Content)}
	case CodeBlock:
		n := Node{Type: NodeCodeBlock, Text: el.Content.Resolve(src)}
		if el.HasLang {
			n.Lang = el.Lang.Resolve(src)
		}
		return n
	case Table:
		n := Node{Type: NodeTable, Header: resolveCells(src, el.Header)}
		if len(el.Rows) > 0 {
			n.Rows = make([][]string, len(el.Rows))
			for i, row := range el.Rows {
				n.Rows[i] = resolveCells(src, row)
			}
		}
		return n
	case ThematicBreak:
		return Node{Type: NodeThematicBreak}
	}
	return Node{Type: "unknown"}
}

// PartialNode resolves the element of p and records its pending tail.
func PartialNode(src string, p Partial) Node {
	n := ToNode(src, p.Element)
	if p.HasPending {
		n.Pending = p.Pending.Resolve(src)
	}
	n.Tentative = p.Tentative
	return n
}

// PlainText concatenates the text of an inline sequence, dropping markup.
// Line breaks become newlines and images contribute their alt text.
func PlainText(src string, inlines []Inline) string {
	var b []byte
	b = appendPlain(b, src, inlines)
	return string(b)
}

func appendPlain(b []byte, src string, inlines []Inline) []byte {
	for _, in := range inlines {
		switch in := in.(type) {
		case Text:
			b = append(b, in.Span.Resolve(src)...)
		case Code:
			b = append(b, in.Span.Resolve(src)...)
		case Bold:
			b = appendPlain(b, src, in.Children)
		case Italic:
			b = appendPlain(b, src, in.Children)
		case BoldItalic:
			b = appendPlain(b, src, in.Children)
		case Strikethrough:
			b = appendPlain(b, src, in.Children)
		case Link:
			b = appendPlain(b, src, in.Text)
		case Image:
			b = append(b, in.Alt.Resolve(src)...)
		case LineBreak:
			b = append(b, '\n')
		}
	}
	return b
}

func inlineNodes(src string, inlines []Inline) []Node {
	if len(inlines) == 0 {
		return nil
	}
	out := make([]Node, 0, len(inlines))
	for _, in := range inlines {
		out = append(out, inlineNode(src, in))
	}
	return out
}

func inlineNode(src string, in Inline) Node {
	switch in := in.(type) {
	case Text:
		return Node{Type: NodeText, Text: in.Span.Resolve(src)}
	case Bold:
		return Node{Type: NodeBold, Children: inlineNodes(src, in.Children)}
	case Italic:
		return Node{Type: NodeItalic, Children: inlineNodes(src, in.Children)}
	case BoldItalic:
		return Node{Type: NodeBoldItalic, Children: inlineNodes(src, in.Children)}
	case Strikethrough:
		return Node{Type: NodeStrikethrough, Children: inlineNodes(src, in.Children)}
	case Code:
		return Node{Type: NodeCode, Text: in.Span.Resolve(src)}
	case Link:
		return Node{Type: NodeLink, URL: in.URL.Resolve(src), Children: inlineNodes(src, in.Text)}
	case Image:
		return Node{Type: NodeImage, Text: in.Alt.Resolve(src), URL: in.URL.Resolve(src)}
	case LineBreak:
		return Node{Type: NodeLineBreak}
	}
	return Node{Type: "unknown"}
}

func resolveCells(src string, cells []Span) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Resolve(src)
	}
	return out
}
