package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/mdstream"
	"pkt.systems/mdstream/internal/config"
	"pkt.systems/mdstream/internal/logging"
	"pkt.systems/version"
)

const defaultWidth = 80

func init() {
	version.SetDefaultModule("pkt.systems/mdstream")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	configPath  string
	format      string
	width       int
	simulate    bool
	chunk       int
	delay       time.Duration
	logLevel    string
	frontMatter bool
	strict      bool
	detectLang  bool
	partial     bool
	outPath     string
	showVersion bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	var f cliFlags
	defaults := config.Default()
	flags := pflag.NewFlagSet("mdstream", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&f.configPath, "config", "c", "", "YAML config file (default ./"+config.DefaultFile+" if present)")
	flags.StringVarP(&f.format, "format", "f", defaults.Format, "Output format: text|json|yaml")
	flags.IntVarP(&f.width, "width", "w", 0, "Text output width (0 uses terminal width if available)")
	flags.BoolVar(&f.simulate, "simulate", false, "Feed input as a simulated token stream")
	flags.IntVar(&f.chunk, "simulate-chunk", defaults.Chunk, "Runes per simulated chunk")
	flags.DurationVar(&f.delay, "simulate-delay", defaults.Delay, "Delay between simulated chunks")
	flags.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
	flags.BoolVar(&f.frontMatter, "front-matter", false, "Strip and report leading front matter")
	flags.BoolVar(&f.strict, "strict", false, "Fail on invalid UTF-8 or binary input")
	flags.BoolVar(&f.detectLang, "detect-lang", false, "Guess the language of untagged code blocks")
	flags.BoolVar(&f.partial, "partial", false, "Log in-progress blocks at debug level while streaming")
	flags.StringVarP(&f.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVar(&f.showVersion, "version", false, "Print version and exit")
	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: mdstream [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nInputs may be paths, file:// or http(s):// URLs. Without inputs, Markdown is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if f.showVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return 0
	}

	cfg, err := config.Load(f.configPath, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	applyFlags(flags, f, &cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "invalid --log-level: %v\n", err)
		return 2
	}
	logger := logging.NewWriter(stderr, cfg.LogLevel)
	logging.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)
	logger.Debug("starting", logging.FieldVersion, version.Current(), logging.FieldFormat, cfg.Format,
		"simulate", cfg.Simulate, "chunk", cfg.Chunk, "delay", cfg.Delay)

	writer, closeOut, err := resolveOutput(f.outPath, stdout)
	if err != nil {
		logger.Error("open output", logging.FieldError, err)
		return 1
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}
	if cfg.Format == config.FormatText && cfg.Width == 0 {
		cfg.Width = terminalWidth(writer, getenv, defaultWidth)
	}

	sink := newOutputSink(writer, cfg, logger)
	if err := parseInputs(ctx, flags.Args(), stdin, sink, cfg, logger); err != nil {
		logger.Error("parse", logging.FieldError, err)
		return 1
	}
	return 0
}

func applyFlags(flags *pflag.FlagSet, f cliFlags, cfg *config.Config) {
	if flags.Changed("format") {
		cfg.Format = f.format
	}
	if flags.Changed("width") {
		cfg.Width = f.width
	}
	if flags.Changed("simulate") {
		cfg.Simulate = f.simulate
	}
	if flags.Changed("simulate-chunk") {
		cfg.Chunk = f.chunk
		cfg.Simulate = true
	}
	if flags.Changed("simulate-delay") {
		cfg.Delay = f.delay
		cfg.Simulate = true
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("front-matter") {
		cfg.FrontMatter = f.frontMatter
	}
	if flags.Changed("strict") {
		cfg.Strict = f.strict
	}
	if flags.Changed("detect-lang") {
		cfg.DetectLang = f.detectLang
	}
	if flags.Changed("partial") {
		cfg.Partial = f.partial
	}
}

func parseOptions(cfg config.Config, logger *log.Logger) []mdstream.Option {
	return []mdstream.Option{
		mdstream.WithLogger(logger),
		mdstream.WithFrontMatter(cfg.FrontMatter),
		mdstream.WithStrictInput(cfg.Strict),
		mdstream.WithPartialUpdates(cfg.Partial),
	}
}

func parseInputs(ctx context.Context, args []string, stdin io.Reader, sink mdstream.Sink, cfg config.Config, logger *log.Logger) error {
	opts := parseOptions(cfg, logger)
	if len(args) == 1 && !cfg.Simulate && isHTTPURL(args[0]) {
		logger.Debug("reading", logging.FieldInput, args[0])
		return mdstream.HTTPParse(ctx, mdstream.HTTPParseRequest{
			URL:     strings.TrimSpace(args[0]),
			Sink:    sink,
			Options: opts,
		})
	}
	reader, closer, err := openInputs(ctx, args, stdin)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	if cfg.Simulate {
		return mdstream.StreamSimulate(mdstream.StreamSimulateRequest{
			Reader:    reader,
			Sink:      sink,
			ChunkSize: cfg.Chunk,
			Delay:     cfg.Delay,
			Options:   opts,
		})
	}
	return mdstream.Parse(mdstream.ParseRequest{
		Reader:  reader,
		Sink:    sink,
		Options: opts,
	})
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func terminalWidth(w io.Writer, getenv func(string) string, fallback int) int {
	if f, ok := w.(*os.File); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			if width, _, err := term.GetSize(fd); err == nil && width > 0 {
				return width
			}
		}
	}
	if value := getenv("COLUMNS"); value != "" {
		if width, err := strconv.Atoi(value); err == nil && width > 0 {
			return width
		}
	}
	return fallback
}

type inputSource struct {
	name string
	open func() (io.Reader, io.Closer, error)
}

type multiInputReader struct {
	sources   []inputSource
	idx       int
	cur       io.Reader
	curCloser io.Closer
	closed    bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.idx >= len(m.sources) {
				m.closed = true
				return 0, io.EOF
			}
			src := m.sources[m.idx]
			reader, closer, err := src.open()
			if err != nil {
				return 0, fmt.Errorf("%s: %w", src.name, err)
			}
			m.cur = reader
			m.curCloser = closer
			m.idx++
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if m.curCloser != nil {
				_ = m.curCloser.Close()
			}
			m.cur = nil
			m.curCloser = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.curCloser != nil {
		return m.curCloser.Close()
	}
	return nil
}

func openInputs(ctx context.Context, args []string, stdin io.Reader) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return stdin, nil, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(ctx, raw, stdin)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	}
	m := &multiInputReader{sources: sources}
	return m, m, nil
}

func makeInputSource(ctx context.Context, raw string, stdin io.Reader) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	if raw == "-" {
		return inputSource{name: "stdin", open: func() (io.Reader, io.Closer, error) {
			return stdin, nil, nil
		}}, nil
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{name: raw, open: func() (io.Reader, io.Closer, error) {
				return openURL(ctx, raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{name: raw, open: func() (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{name: raw, open: func() (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openURL(ctx context.Context, raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	f, err := os.Open(normalizePath(path))
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}
