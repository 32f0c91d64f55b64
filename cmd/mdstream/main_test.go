package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pkt.systems/mdstream"
	"pkt.systems/mdstream/internal/config"
	"pkt.systems/mdstream/internal/logging"
)

func TestOpenInputFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.md")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	ctx := context.Background()
	reader, closer, err := openInputs(ctx, []string{path}, nil)
	if err != nil {
		t.Fatalf("openInputs file: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ := io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file content: %q", string(buf))
	}

	fileURL := "file://" + path
	reader, closer, err = openInputs(ctx, []string{fileURL}, nil)
	if err != nil {
		t.Fatalf("openInputs file URL: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ = io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file URL content: %q", string(buf))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("stream"))
	}))
	defer srv.Close()
	reader, closer, err = openInputs(ctx, []string{srv.URL}, nil)
	if err != nil {
		t.Fatalf("openInputs http: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ = io.ReadAll(reader)
	if string(buf) != "stream" {
		t.Fatalf("unexpected http content: %q", string(buf))
	}
}

func TestOpenInputsConcatenates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	second := filepath.Join(dir, "b.md")
	if err := os.WriteFile(first, []byte("one "), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte("two"), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	stdin := strings.NewReader(" three")
	reader, closer, err := openInputs(context.Background(), []string{first, second, "-"}, stdin)
	if err != nil {
		t.Fatalf("openInputs concat: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ := io.ReadAll(reader)
	if string(buf) != "one two three" {
		t.Fatalf("unexpected concatenated content: %q", string(buf))
	}
}

func TestOpenInputsErrors(t *testing.T) {
	if _, _, err := openInputs(context.Background(), []string{"  "}, nil); err == nil {
		t.Fatalf("expected error for empty argument")
	}
	reader, _, err := openInputs(context.Background(), []string{filepath.Join(t.TempDir(), "missing.md")}, nil)
	if err != nil {
		t.Fatalf("open is lazy, got %v", err)
	}
	if _, err := io.ReadAll(reader); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestIsHTTPURL(t *testing.T) {
	for raw, want := range map[string]bool{
		"http://example.com/a.md":  true,
		" HTTPS://example.com ":    true,
		"file:///tmp/a.md":         false,
		"README.md":                false,
		"ftp://example.com/readme": false,
	} {
		if got := isHTTPURL(raw); got != want {
			t.Fatalf("isHTTPURL(%q)=%v want %v", raw, got, want)
		}
	}
}

func TestTerminalWidthFallsBackToColumns(t *testing.T) {
	env := func(k string) string {
		if k == "COLUMNS" {
			return "42"
		}
		return ""
	}
	if got := terminalWidth(&bytes.Buffer{}, env, 80); got != 42 {
		t.Fatalf("width = %d, want 42", got)
	}
	if got := terminalWidth(&bytes.Buffer{}, func(string) string { return "bad" }, 80); got != 80 {
		t.Fatalf("width = %d, want fallback 80", got)
	}
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, env map[string]string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	getenv := func(k string) string { return env[k] }
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr, getenv)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestRunTextMatchesGolden(t *testing.T) {
	want, err := os.ReadFile("../../testdata/basic.w60.golden")
	require.NoError(t, err)
	for _, args := range [][]string{
		{"--width", "60", "../../testdata/basic.md"},
		{"-w", "60", "--simulate-chunk", "2", "--simulate-delay", "0s", "../../testdata/basic.md"},
	} {
		res := runCLI(t, "", nil, args...)
		require.Equalf(t, 0, res.code, "stderr: %s", res.stderr)
		assert.Equal(t, string(want), res.stdout, "args %v", args)
	}
}

func TestRunJSON(t *testing.T) {
	res := runCLI(t, "# T\n\nSee [go](https://go.dev)\n", nil, "-f", "json")
	require.Equalf(t, 0, res.code, "stderr: %s", res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"type":"heading","level":1,"children":[{"type":"text","text":"T"}]}`, lines[0])
	assert.JSONEq(t, `{"type":"paragraph","children":[{"type":"text","text":"See "},{"type":"link","url":"https://go.dev","children":[{"type":"text","text":"go"}]}]}`, lines[1])
}

func TestRunYAML(t *testing.T) {
	res := runCLI(t, "# T\n\n---\n| a |\n|---|\n", nil, "--format", "yaml")
	require.Equalf(t, 0, res.code, "stderr: %s", res.stderr)
	dec := yaml.NewDecoder(strings.NewReader(res.stdout))
	var got []mdstream.Node
	for {
		var n mdstream.Node
		err := dec.Decode(&n)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, n)
	}
	assert.Equal(t, []mdstream.Node{
		{Type: mdstream.NodeHeading, Level: 1, Children: []mdstream.Node{{Type: mdstream.NodeText, Text: "T"}}},
		{Type: mdstream.NodeThematicBreak},
		{Type: mdstream.NodeTable, Header: []string{"a"}},
	}, got)
}

func TestRunFrontMatter(t *testing.T) {
	src := "---\ntitle: Post\n---\n# T\n"
	res := runCLI(t, src, nil, "--front-matter", "-f", "json")
	require.Equalf(t, 0, res.code, "stderr: %s", res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"type":"front_matter","format":"yaml","data":{"title":"Post"}}`, lines[0])

	res = runCLI(t, src, map[string]string{"MDSTREAM_FRONT_MATTER": "true"})
	require.Equal(t, 0, res.code)
	assert.Equal(t, "front matter (yaml): 1 keys\nh1 T\n", res.stdout)
}

func TestRunDetectLang(t *testing.T) {
	src := "```\npackage main\n```\n"
	res := runCLI(t, src, nil, "--detect-lang")
	require.Equal(t, 0, res.code)
	assert.Equal(t, "code go (detected)\n  │ package main\n", res.stdout)

	res = runCLI(t, src, nil)
	require.Equal(t, 0, res.code)
	assert.Equal(t, "code\n  │ package main\n", res.stdout)
}

func TestRunConfigLayers(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: json\n"), 0o644))

	res := runCLI(t, "# T\n", nil, "--config", cfgPath)
	require.Equalf(t, 0, res.code, "stderr: %s", res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "{"), res.stdout)

	res = runCLI(t, "# T\n", map[string]string{"MDSTREAM_FORMAT": "yaml"}, "--config", cfgPath)
	require.Equal(t, 0, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "type: heading"), res.stdout)

	res = runCLI(t, "# T\n", map[string]string{"MDSTREAM_FORMAT": "yaml"}, "--config", cfgPath, "-f", "text")
	require.Equal(t, 0, res.code)
	assert.Equal(t, "h1 T\n", res.stdout)
}

func TestRunOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "out.txt")
	res := runCLI(t, "# T\n", nil, "-o", out)
	require.Equalf(t, 0, res.code, "stderr: %s", res.stderr)
	assert.Empty(t, res.stdout)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "h1 T\n", string(data))
}

func TestRunHTTPInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# Remote\n"))
	}))
	defer srv.Close()
	res := runCLI(t, "", nil, srv.URL)
	require.Equalf(t, 0, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "h1 Remote\n", res.stdout)
}

func TestRunPartialLogging(t *testing.T) {
	res := runCLI(t, "Some text", nil, "--partial", "--log-level", "debug")
	require.Equal(t, 0, res.code)
	assert.Equal(t, "p  Some text\n", res.stdout)
	assert.Contains(t, res.stderr, "partial")
	assert.Contains(t, res.stderr, "parse finished")
}

func TestOutputSinkPartialFollowsLogLevel(t *testing.T) {
	p := mdstream.NewParser()
	p.Push("See [docs](ht")
	part, ok := p.Partial()
	require.True(t, ok)

	var quiet, logs, out bytes.Buffer
	s := newOutputSink(&out, config.Default(), logging.NewWriter(&quiet, "info"))
	require.NoError(t, s.WritePartial(p.Buffer(), part))
	assert.Empty(t, quiet.String())

	s = newOutputSink(&out, config.Default(), logging.NewWriter(&logs, "debug"))
	require.NoError(t, s.WritePartial(p.Buffer(), part))
	assert.Contains(t, logs.String(), "partial")
	assert.Contains(t, logs.String(), "[docs](ht")
	assert.Empty(t, out.String())

	s = newOutputSink(&out, config.Default(), nil)
	require.NoError(t, s.WritePartial(p.Buffer(), part))
}

func TestRunVersionAndHelp(t *testing.T) {
	res := runCLI(t, "", nil, "--version")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "mdstream")

	res = runCLI(t, "", nil, "--help")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stderr, "Usage: mdstream")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		stdin  string
		env    map[string]string
		args   []string
		code   int
		stderr string
	}{
		{name: "unknown format", args: []string{"-f", "xml"}, code: 2, stderr: "unknown format"},
		{name: "bad log level", args: []string{"--log-level", "loud"}, code: 2, stderr: "log-level"},
		{name: "unknown flag", args: []string{"--nope"}, code: 2},
		{name: "missing config", args: []string{"--config", "/nonexistent/mdstream.yaml"}, code: 2, stderr: "config"},
		{name: "bad env", env: map[string]string{"MDSTREAM_WIDTH": "wide"}, code: 2, stderr: "MDSTREAM_WIDTH"},
		{name: "bad chunk", args: []string{"--simulate-chunk", "0"}, code: 2, stderr: "chunk"},
		{name: "missing input", args: []string{"/nonexistent/input.md"}, code: 1, stderr: "input.md"},
		{name: "strict binary", stdin: "ok\x00", args: []string{"--strict"}, code: 1, stderr: "binary"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, tc.stdin, tc.env, tc.args...)
			assert.Equal(t, tc.code, res.code, "stderr: %s", res.stderr)
			assert.Contains(t, res.stderr, tc.stderr)
		})
	}
}
