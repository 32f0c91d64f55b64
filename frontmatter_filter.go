package mdstream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const maxFrontMatterProbeBytes = 64 * 1024

// FrontMatter is a metadata block stripped from the start of a document.
type FrontMatter struct {
	// Format is "yaml" for ---, "toml" for +++ and "json" for ;;; blocks.
	Format string         `json:"format" yaml:"format"`
	Raw    string         `json:"raw" yaml:"raw"`
	Data   map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// Decode parses Raw according to Format into Data.
func (fm *FrontMatter) Decode() error {
	data := map[string]any{}
	var err error
	switch fm.Format {
	case "yaml":
		err = yaml.Unmarshal([]byte(fm.Raw), &data)
	case "toml":
		err = toml.Unmarshal([]byte(fm.Raw), &data)
	case "json":
		raw := bytes.TrimSpace([]byte(fm.Raw))
		if len(raw) == 0 || raw[0] != '{' {
			raw = append(append([]byte("{"), raw...), '}')
		}
		err = json.Unmarshal(raw, &data)
	default:
		return fmt.Errorf("front matter: unknown format %q", fm.Format)
	}
	if err != nil {
		return fmt.Errorf("front matter: decode %s: %w", fm.Format, err)
	}
	fm.Data = data
	return nil
}

// frontMatterFilter holds back the start of a stream until it knows whether a
// front matter block is present, then strips it.
type frontMatterFilter struct {
	passthrough bool
	probe       []byte
	found       *FrontMatter
	probeArr    [4096]byte
}

func (f *frontMatterFilter) reset(enabled bool) {
	f.passthrough = !enabled
	f.probe = f.probeArr[:0]
	f.found = nil
}

func (f *frontMatterFilter) process(chunk []byte) []byte {
	if f.passthrough || len(chunk) == 0 {
		return chunk
	}
	f.probe = append(f.probe, chunk...)
	out, decided := f.decide(false)
	if !decided && len(f.probe) > maxFrontMatterProbeBytes {
		out = f.release()
		decided = true
	}
	if decided {
		return out
	}
	return nil
}

func (f *frontMatterFilter) finish() []byte {
	if f.passthrough || len(f.probe) == 0 {
		return nil
	}
	out, _ := f.decide(true)
	return out
}

// take returns the stripped block once, if there was one.
func (f *frontMatterFilter) take() *FrontMatter {
	fm := f.found
	f.found = nil
	return fm
}

func (f *frontMatterFilter) release() []byte {
	out := f.probe
	f.passthrough = true
	f.probe = f.probe[:0]
	return out
}

func (f *frontMatterFilter) decide(eof bool) ([]byte, bool) {
	openLine, openNext, ok := nextLine(f.probe, 0, eof)
	if !ok {
		return nil, false
	}
	format, delim, isFrontMatter := parseOpeningFrontMatterDelimiter(openLine)
	if !isFrontMatter {
		return f.release(), true
	}

	secondLine, _, ok := nextLine(f.probe, openNext, eof)
	if !ok {
		return nil, false
	}
	if !frontMatterMetadataLikely(secondLine) {
		return f.release(), true
	}

	closeStart, closeNext, found := findClosingFrontMatterDelimiter(f.probe, openNext, delim, eof)
	if !found {
		if eof {
			return f.release(), true
		}
		return nil, false
	}
	f.found = &FrontMatter{Format: format, Raw: string(f.probe[openNext:closeStart])}
	out := f.probe[closeNext:]
	f.passthrough = true
	f.probe = f.probe[:0]
	return out, true
}

func nextLine(src []byte, start int, eof bool) ([]byte, int, bool) {
	if start > len(src) {
		return nil, 0, false
	}
	if start == len(src) {
		if eof {
			return src[start:], start, true
		}
		return nil, 0, false
	}
	i := bytes.IndexByte(src[start:], '\n')
	if i < 0 {
		if !eof {
			return nil, 0, false
		}
		return trimCR(src[start:]), len(src), true
	}
	lineEnd := start + i
	return trimCR(src[start:lineEnd]), lineEnd + 1, true
}

func parseOpeningFrontMatterDelimiter(line []byte) (string, []byte, bool) {
	trimmed := bytes.TrimSpace(trimBOM(line))
	switch {
	case bytes.Equal(trimmed, []byte("---")):
		return "yaml", []byte("---"), true
	case bytes.Equal(trimmed, []byte("+++")):
		return "toml", []byte("+++"), true
	case bytes.Equal(trimmed, []byte(";;;")):
		return "json", []byte(";;;"), true
	default:
		return "", nil, false
	}
}

func frontMatterMetadataLikely(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	if bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("[")) || bytes.HasPrefix(trimmed, []byte("\"")) {
		return true
	}
	return bytes.Contains(trimmed, []byte(":")) || bytes.Contains(trimmed, []byte("="))
}

// findClosingFrontMatterDelimiter returns the start of the closing delimiter
// line and the offset just past it.
func findClosingFrontMatterDelimiter(src []byte, start int, delim []byte, eof bool) (int, int, bool) {
	for idx := start; idx <= len(src); {
		line, next, ok := nextLine(src, idx, eof)
		if !ok {
			return 0, 0, false
		}
		if bytes.Equal(bytes.TrimSpace(line), delim) {
			return idx, next, true
		}
		if next == idx {
			return 0, 0, false
		}
		idx = next
		if idx == len(src) && !eof {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
