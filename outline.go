package mdstream

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// WriteOutline writes a compact plain-text outline of nodes, one block per
// entry. Prose is word-wrapped and code lines are truncated to width; a
// width of 0 disables both.
func WriteOutline(w io.Writer, nodes []Node, width int) error {
	bw := bufio.NewWriter(w)
	for _, n := range nodes {
		writeOutlineNode(bw, n, width)
	}
	return bw.Flush()
}

func writeOutlineNode(w *bufio.Writer, n Node, width int) {
	switch n.Type {
	case NodeHeading:
		label := "h" + strconv.Itoa(n.Level) + " "
		writeWrapped(w, label, nodePlain(n.Children), width)
	case NodeParagraph:
		writeWrapped(w, "p  ", nodePlain(n.Children), width)
	case NodeCodeBlock:
		w.WriteString("code")
		if n.Lang != "" {
			w.WriteString(" " + n.Lang)
			if n.Detected {
				w.WriteString(" (detected)")
			}
		}
		w.WriteByte('\n')
		for _, line := range strings.Split(strings.TrimSuffix(n.Text, "\n"), "\n") {
			writeLine(w, "  │ "+line, width)
		}
	case NodeTable:
		w.WriteString("table\n")
		writeLine(w, "  "+strings.Join(n.Header, " | "), width)
		for _, row := range n.Rows {
			writeLine(w, "  "+strings.Join(row, " | "), width)
		}
	case NodeThematicBreak:
		w.WriteString("hr\n")
	default:
		writeWrapped(w, n.Type+" ", n.Text, width)
	}
	if n.Pending != "" {
		writeLine(w, "  … "+n.Pending, width)
	}
}

func writeWrapped(w *bufio.Writer, label, text string, width int) {
	pad := ansi.PrintableRuneWidth(label)
	if width > pad {
		text = wordwrap.String(text, width-pad)
	}
	first, rest, more := strings.Cut(text, "\n")
	w.WriteString(label)
	w.WriteString(first)
	w.WriteByte('\n')
	if more {
		w.WriteString(indent.String(rest, uint(pad)))
		w.WriteByte('\n')
	}
}

func writeLine(w *bufio.Writer, line string, width int) {
	if width > 0 {
		line = truncateWithEllipsis(line, width)
	}
	w.WriteString(line)
	w.WriteByte('\n')
}

func nodePlain(nodes []Node) string {
	var b strings.Builder
	appendNodePlain(&b, nodes)
	return b.String()
}

func appendNodePlain(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n.Type {
		case NodeText:
			b.WriteString(strings.ReplaceAll(n.Text, "\n", " "))
		case NodeCode, NodeImage:
			b.WriteString(n.Text)
		case NodeLineBreak:
			b.WriteByte('\n')
		default:
			appendNodePlain(b, n.Children)
		}
	}
}

func truncateWithEllipsis(text string, limit int) string {
	if ansi.PrintableRuneWidth(text) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
