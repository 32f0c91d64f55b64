package mdstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"pkt.systems/mdstream/internal/logging"
)

var (
	// ErrNilReader reports a request without a reader.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilSink reports a request without a sink.
	ErrNilSink = errors.New("sink is nil")
)

var readerPool = sync.Pool{
	New: func() any {
		return bufio.NewReaderSize(nil, 4096)
	},
}

var pipelinePool = sync.Pool{
	New: func() any {
		return &pipeline{}
	},
}

// ParseRequest configures Parse.
type ParseRequest struct {
	Reader  io.Reader
	Sink    Sink
	Options []Option
}

// Parse reads Markdown from req.Reader as it arrives and writes every
// confirmed element to req.Sink. At end of input the parser is finalized and
// the sink flushed.
func Parse(req ParseRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("parse: %w", ErrNilReader)
	}
	if req.Sink == nil {
		return fmt.Errorf("parse: %w", ErrNilSink)
	}
	pl := acquirePipeline(req.Sink, newConfig(req.Options))
	reader := readerPool.Get().(*bufio.Reader)
	reader.Reset(req.Reader)
	buf := pl.readBufArr[:]
	var retErr error
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if ferr := pl.feed(buf[:n]); ferr != nil {
				retErr = fmt.Errorf("parse: %w", ferr)
				goto done
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			retErr = fmt.Errorf("parse: read: %w", err)
			goto done
		}
	}
	if err := pl.finish(); err != nil {
		retErr = fmt.Errorf("parse: %w", err)
	}
done:
	reader.Reset(nil)
	readerPool.Put(reader)
	releasePipeline(pl)
	return retErr
}

// pipeline carries bytes from a reader through input cleaning and front
// matter stripping into a Parser, and drains the parser into a sink.
type pipeline struct {
	parser      *Parser
	sink        Sink
	partials    PartialSink
	frontSink   FrontMatterSink
	cfg         config
	input       inputFilter
	frontMatter frontMatterFilter
	bytesIn     int
	elements    int

	readBufArr [4096]byte
}

func acquirePipeline(sink Sink, cfg config) *pipeline {
	pl := pipelinePool.Get().(*pipeline)
	// Sinks may keep Buffer views, so every run gets a parser of its own.
	pl.parser = NewParser(WithLogger(cfg.logger))
	pl.sink = sink
	pl.cfg = cfg
	pl.partials = nil
	if cfg.partials {
		pl.partials, _ = sink.(PartialSink)
	}
	pl.frontSink, _ = sink.(FrontMatterSink)
	pl.input.reset(cfg.strict)
	pl.frontMatter.reset(cfg.frontMatter)
	pl.bytesIn = 0
	pl.elements = 0
	return pl
}

func releasePipeline(pl *pipeline) {
	pl.parser = nil
	pl.sink = nil
	pl.partials = nil
	pl.frontSink = nil
	pl.cfg = config{}
	pipelinePool.Put(pl)
}

// feed cleans raw input and pushes it.
func (pl *pipeline) feed(raw []byte) error {
	pl.bytesIn += len(raw)
	clean, err := pl.input.filter(raw)
	if err != nil {
		return err
	}
	return pl.push(clean)
}

// push strips front matter from already clean input and parses the rest.
func (pl *pipeline) push(data []byte) error {
	data = pl.frontMatter.process(data)
	if err := pl.deliverFrontMatter(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	pl.parser.Write(data)
	return pl.drain(true)
}

func (pl *pipeline) finish() error {
	if err := pl.input.finish(); err != nil {
		return err
	}
	if trailing := pl.frontMatter.finish(); len(trailing) > 0 {
		pl.parser.Write(trailing)
	}
	if err := pl.deliverFrontMatter(); err != nil {
		return err
	}
	pl.parser.Finalize()
	if err := pl.drain(false); err != nil {
		return err
	}
	if logger := pl.cfg.logger; logger != nil {
		logger.Debug("parse finished", logging.FieldBytes, pl.bytesIn, logging.FieldElements, pl.elements)
	}
	return pl.sink.Flush()
}

func (pl *pipeline) drain(withPartial bool) error {
	src := pl.parser.Buffer()
	for el := range pl.parser.Parsed() {
		pl.elements++
		if err := pl.sink.WriteElement(src, el); err != nil {
			return err
		}
	}
	if !withPartial || pl.partials == nil {
		return nil
	}
	if p, ok := pl.parser.Partial(); ok {
		return pl.partials.WritePartial(src, p)
	}
	return nil
}

func (pl *pipeline) deliverFrontMatter() error {
	fm := pl.frontMatter.take()
	if fm == nil {
		return nil
	}
	if err := fm.Decode(); err != nil && pl.cfg.logger != nil {
		pl.cfg.logger.Warn("front matter not decoded", logging.FieldFormat, fm.Format, logging.FieldError, err)
	}
	if pl.frontSink == nil {
		return nil
	}
	return pl.frontSink.WriteFrontMatter(*fm)
}
