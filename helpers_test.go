package mdstream

import "testing"

// feed pushes chunks one at a time, draining after each, then finalizes.
func feed(t testing.TB, chunks ...string) (*Parser, []Element) {
	t.Helper()
	p := NewParser()
	var out []Element
	for _, c := range chunks {
		p.Push(c)
		for el := range p.Parsed() {
			out = append(out, el)
		}
	}
	p.Finalize()
	for el := range p.Parsed() {
		out = append(out, el)
	}
	return p, out
}

func feedNodes(t testing.TB, chunks ...string) []Node {
	t.Helper()
	p, els := feed(t, chunks...)
	return toNodes(p.Buffer(), els)
}

func drain(p *Parser) []Element {
	var out []Element
	for el := range p.Parsed() {
		out = append(out, el)
	}
	return out
}

func toNodes(src string, els []Element) []Node {
	out := make([]Node, 0, len(els))
	for _, el := range els {
		out = append(out, ToNode(src, el))
	}
	return out
}

func text(s string) Node { return Node{Type: NodeText, Text: s} }

func code(s string) Node { return Node{Type: NodeCode, Text: s} }

func bold(children ...Node) Node { return Node{Type: NodeBold, Children: children} }

func italic(children ...Node) Node { return Node{Type: NodeItalic, Children: children} }

func boldItalic(children ...Node) Node { return Node{Type: NodeBoldItalic, Children: children} }

func strike(children ...Node) Node { return Node{Type: NodeStrikethrough, Children: children} }

func link(url string, children ...Node) Node {
	return Node{Type: NodeLink, URL: url, Children: children}
}

func image(alt, url string) Node { return Node{Type: NodeImage, Text: alt, URL: url} }

func lineBreak() Node { return Node{Type: NodeLineBreak} }

func heading(level int, children ...Node) Node {
	return Node{Type: NodeHeading, Level: level, Children: children}
}

func para(children ...Node) Node { return Node{Type: NodeParagraph, Children: children} }

func codeBlock(lang, body string) Node { return Node{Type: NodeCodeBlock, Lang: lang, Text: body} }

func table(header []string, rows ...[]string) Node {
	return Node{Type: NodeTable, Header: header, Rows: rows}
}

func hr() Node { return Node{Type: NodeThematicBreak} }
