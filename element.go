package mdstream

// Kind identifies the block type of an Element or Partial.
type Kind uint8

const (
	kindNone Kind = iota
	// KindHeading is an ATX heading.
	KindHeading
	// KindParagraph is a run of text lines.
	KindParagraph
	// KindCodeBlock is a fenced code block.
	KindCodeBlock
	// KindTable is a pipe table.
	KindTable
	// KindThematicBreak is a horizontal rule.
	KindThematicBreak
)

var kindNames = [...]string{
	kindNone:          "none",
	KindHeading:       "heading",
	KindParagraph:     "paragraph",
	KindCodeBlock:     "code_block",
	KindTable:         "table",
	KindThematicBreak: "thematic_break",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Element is a confirmed block. The concrete types are Heading, Paragraph,
// CodeBlock, Table and ThematicBreak.
type Element interface {
	Kind() Kind
	element()
}

// Heading is a single-line heading of level 1 to 6.
type Heading struct {
	Level   int
	Content []Inline
}

// Paragraph holds the inline content of one or more text lines. Soft line
// breaks stay inside Text spans.
type Paragraph struct {
	Content []Inline
}

// CodeBlock is a fenced code block. Content covers the lines between the
// fences, trailing newline included; it is not inline-scanned.
type CodeBlock struct {
	Lang    Span
	HasLang bool
	Content Span
}

// Table is a pipe table. Cell spans are trimmed; an empty cell is a
// zero-length span. Rows keep their own cell count.
type Table struct {
	Header []Span
	Rows   [][]Span
}

// ThematicBreak is a horizontal rule.
type ThematicBreak struct{}

func (Heading) Kind() Kind       { return KindHeading }
func (Paragraph) Kind() Kind     { return KindParagraph }
func (CodeBlock) Kind() Kind     { return KindCodeBlock }
func (Table) Kind() Kind         { return KindTable }
func (ThematicBreak) Kind() Kind { return KindThematicBreak }

func (Heading) element()       {}
func (Paragraph) element()     {}
func (CodeBlock) element()     {}
func (Table) element()         {}
func (ThematicBreak) element() {}

// Inline is a formatting unit inside a heading or paragraph. The concrete
// types are Text, Bold, Italic, BoldItalic, Strikethrough, Code, Link, Image
// and LineBreak.
type Inline interface {
	inline()
}

// Text is literal text.
type Text struct {
	Span Span
}

// Bold is **strong** or __strong__ text.
type Bold struct {
	Children []Inline
}

// Italic is *emphasised* or _emphasised_ text.
type Italic struct {
	Children []Inline
}

// BoldItalic is ***text*** or ___text___.
type BoldItalic struct {
	Children []Inline
}

// Strikethrough is ~~text~~.
type Strikethrough struct {
	Children []Inline
}

// Code is an inline code span. The span excludes the backticks.
type Code struct {
	Span Span
}

// Link is [text](url).
type Link struct {
	Text []Inline
	URL  Span
}

// Image is ![alt](url).
type Image struct {
	Alt Span
	URL Span
}

// LineBreak is a hard line break: two or more spaces before a newline.
type LineBreak struct{}

func (Text) inline()          {}
func (Bold) inline()          {}
func (Italic) inline()        {}
func (BoldItalic) inline()    {}
func (Strikethrough) inline() {}
func (Code) inline()          {}
func (Link) inline()          {}
func (Image) inline()         {}
func (LineBreak) inline()     {}
