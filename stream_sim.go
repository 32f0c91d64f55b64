package mdstream

import (
	"bufio"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// StreamSimulateRequest configures StreamSimulate.
type StreamSimulateRequest struct {
	Reader    io.Reader
	Sink      Sink
	ChunkSize int
	Delay     time.Duration
	Options   []Option
}

var simulateSleep = time.Sleep

// StreamSimulate re-chunks Reader into pushes of ChunkSize runes with Delay
// between them, the way tokens arrive from a language model, and otherwise
// behaves like Parse.
func StreamSimulate(req StreamSimulateRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("stream simulate: %w", ErrNilReader)
	}
	if req.Sink == nil {
		return fmt.Errorf("stream simulate: %w", ErrNilSink)
	}
	if req.ChunkSize <= 0 {
		return fmt.Errorf("stream simulate: ChunkSize must be > 0")
	}
	if req.Delay < 0 {
		return fmt.Errorf("stream simulate: Delay must be >= 0")
	}
	pl := acquirePipeline(req.Sink, newConfig(req.Options))
	reader := readerPool.Get().(*bufio.Reader)
	reader.Reset(req.Reader)
	buf := pl.readBufArr[:0]
	runes := 0
	var retErr error
	for {
		r, size, err := reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			retErr = fmt.Errorf("stream simulate: read: %w", err)
			goto done
		}
		pl.bytesIn += size
		if r == utf8.RuneError && size == 1 {
			if pl.cfg.strict {
				retErr = fmt.Errorf("stream simulate: %w", ErrInvalidUTF8)
				goto done
			}
			continue
		}
		if isControlRune(r) {
			if pl.cfg.strict && r == 0 {
				retErr = fmt.Errorf("stream simulate: %w", ErrBinaryInput)
				goto done
			}
			continue
		}
		buf = utf8.AppendRune(buf, r)
		runes++
		if runes >= req.ChunkSize {
			if err := pl.push(buf); err != nil {
				retErr = fmt.Errorf("stream simulate: %w", err)
				goto done
			}
			buf = buf[:0]
			runes = 0
			if req.Delay > 0 {
				simulateSleep(req.Delay)
			}
		}
	}
	if len(buf) > 0 {
		if err := pl.push(buf); err != nil {
			retErr = fmt.Errorf("stream simulate: %w", err)
			goto done
		}
	}
	if err := pl.finish(); err != nil {
		retErr = fmt.Errorf("stream simulate: %w", err)
	}
done:
	reader.Reset(nil)
	readerPool.Put(reader)
	releasePipeline(pl)
	return retErr
}
