package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
	"pkt.systems/mdstream"
	"pkt.systems/mdstream/internal/config"
	"pkt.systems/mdstream/internal/langdetect"
	"pkt.systems/mdstream/internal/logging"
)

// outputSink prints each confirmed element as soon as it arrives.
type outputSink struct {
	w          io.Writer
	format     string
	width      int
	detectLang bool
	logger     *log.Logger
	json       *json.Encoder
	yaml       *yaml.Encoder
	elements   int
}

type frontMatterRecord struct {
	Type   string         `json:"type" yaml:"type"`
	Format string         `json:"format" yaml:"format"`
	Data   map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

func newOutputSink(w io.Writer, cfg config.Config, logger *log.Logger) *outputSink {
	s := &outputSink{
		w:          w,
		format:     cfg.Format,
		width:      cfg.Width,
		detectLang: cfg.DetectLang,
		logger:     logger,
	}
	switch cfg.Format {
	case config.FormatJSON:
		s.json = json.NewEncoder(w)
		s.json.SetEscapeHTML(false)
	case config.FormatYAML:
		s.yaml = yaml.NewEncoder(w)
		s.yaml.SetIndent(2)
	}
	return s
}

func (s *outputSink) WriteElement(src string, el mdstream.Element) error {
	s.elements++
	n := mdstream.ToNode(src, el)
	if cb, ok := el.(mdstream.CodeBlock); ok && !cb.HasLang && s.detectLang {
		if lang, ok := langdetect.DetectOK([]byte(cb.Content.Resolve(src))); ok {
			n.Lang = lang
			n.Detected = true
		}
	}
	return s.write(n)
}

func (s *outputSink) write(v any) error {
	switch {
	case s.json != nil:
		return s.json.Encode(v)
	case s.yaml != nil:
		return s.yaml.Encode(v)
	}
	n, ok := v.(mdstream.Node)
	if !ok {
		return nil
	}
	return mdstream.WriteOutline(s.w, []mdstream.Node{n}, s.width)
}

func (s *outputSink) WriteFrontMatter(fm mdstream.FrontMatter) error {
	if s.json == nil && s.yaml == nil {
		_, err := fmt.Fprintf(s.w, "front matter (%s): %d keys\n", fm.Format, len(fm.Data))
		return err
	}
	return s.write(frontMatterRecord{Type: "front_matter", Format: fm.Format, Data: fm.Data})
}

// WritePartial only logs, so it skips all work unless debug logging is on.
func (s *outputSink) WritePartial(src string, p mdstream.Partial) error {
	if s.logger == nil || s.logger.GetLevel() > log.DebugLevel {
		return nil
	}
	var pending string
	if p.HasPending {
		pending = p.Pending.Resolve(src)
	}
	s.logger.Debug("partial", "kind", p.Kind, "tentative", p.Tentative, "pending", pending)
	return nil
}

func (s *outputSink) Flush() error {
	s.logger.Debug("output flushed", logging.FieldElements, s.elements)
	if s.yaml != nil {
		return s.yaml.Close()
	}
	return nil
}
