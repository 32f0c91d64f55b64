package mdstream

// Sink receives confirmed elements from Parse, StreamSimulate and HTTPParse.
// src is the parser buffer at the time of the call; resolve the element's
// spans against it.
type Sink interface {
	WriteElement(src string, el Element) error
	Flush() error
}

// PartialSink is implemented by sinks that want the block under construction
// after every chunk. It is only used with WithPartialUpdates.
type PartialSink interface {
	WritePartial(src string, p Partial) error
}

// FrontMatterSink is implemented by sinks that want the front matter block
// stripped by WithFrontMatter.
type FrontMatterSink interface {
	WriteFrontMatter(fm FrontMatter) error
}

// Collector is a Sink that keeps everything it receives.
type Collector struct {
	Source      string
	Elements    []Element
	FrontMatter *FrontMatter
	Partials    int
	LastPartial *Node
	Flushed     bool
}

// WriteElement implements Sink.
func (c *Collector) WriteElement(src string, el Element) error {
	c.Source = src
	c.Elements = append(c.Elements, el)
	return nil
}

// WritePartial implements PartialSink. Only the latest partial is kept, as a
// resolved node, since its spans may be reinterpreted by the next push.
func (c *Collector) WritePartial(src string, p Partial) error {
	c.Partials++
	n := PartialNode(src, p)
	c.LastPartial = &n
	return nil
}

// WriteFrontMatter implements FrontMatterSink.
func (c *Collector) WriteFrontMatter(fm FrontMatter) error {
	c.FrontMatter = &fm
	return nil
}

// Flush implements Sink.
func (c *Collector) Flush() error {
	c.Flushed = true
	return nil
}

// Nodes resolves the collected elements.
func (c *Collector) Nodes() []Node {
	out := make([]Node, 0, len(c.Elements))
	for _, el := range c.Elements {
		out = append(out, ToNode(c.Source, el))
	}
	return out
}
