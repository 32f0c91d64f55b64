// Package mdstream parses Markdown incrementally as it arrives in arbitrary
// chunks, such as tokens from a language model stream.
//
// Completed blocks are confirmed as soon as their closing condition is in the
// buffer and are drained from Parser.Parsed. The block still being written is
// available as an optimistic view from Parser.Partial, so a renderer can show
// it before it is confirmed.
//
// Core properties:
//   - Append-only buffer; elements reference it through offset Spans
//   - Confirmed output does not depend on how input was chunked
//   - Malformed input degrades to literal text, never to an error
//   - Headings, paragraphs, fenced code, pipe tables and thematic breaks
//
// Example:
//
//	p := mdstream.NewParser()
//	for _, chunk := range []string{"# Hello ", "World\n\n", "Some **bold** text"} {
//		p.Push(chunk)
//		for el := range p.Parsed() {
//			fmt.Printf("%+v\n", mdstream.ToNode(p.Buffer(), el))
//		}
//	}
//	p.Finalize()
//	for el := range p.Parsed() {
//		fmt.Printf("%+v\n", mdstream.ToNode(p.Buffer(), el))
//	}
//
// Parse, StreamSimulate and HTTPParse drive a Parser from an io.Reader, a
// simulated token stream or an HTTP response and hand elements to a Sink.
package mdstream
