// Command gen-golden rewrites the outline goldens under testdata from the
// current parser. Widths come from existing goldens, or 60 for a new file.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pkt.systems/mdstream"
)

func main() {
	defaultWidths := []int{60}
	root := "testdata"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	var paths []string
	widthsByBase := map[string][]int{}
	entries, err := os.ReadDir(root)
	if err != nil {
		fatalf("read %s: %v", root, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(root, e.Name())
		switch {
		case strings.HasSuffix(path, ".md"):
			paths = append(paths, path)
		case strings.HasSuffix(path, ".golden"):
			if base, width, ok := parseGoldenWidth(e.Name()); ok {
				widthsByBase[base] = append(widthsByBase[base], width)
			}
		}
	}
	if len(paths) == 0 {
		fatalf("no markdown files found under %s", root)
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
		base := strings.TrimSuffix(filepath.Base(path), ".md")
		useWidths := widthsByBase[base]
		if len(useWidths) == 0 {
			useWidths = defaultWidths
		}
		var c mdstream.Collector
		if err := mdstream.Parse(mdstream.ParseRequest{Reader: bytes.NewReader(src), Sink: &c}); err != nil {
			fatalf("parse %s: %v", path, err)
		}
		nodes := c.Nodes()
		for _, width := range useWidths {
			var out bytes.Buffer
			if err := mdstream.WriteOutline(&out, nodes, width); err != nil {
				fatalf("outline %s width %d: %v", path, width, err)
			}
			goldenPath := filepath.Join(root, fmt.Sprintf("%s.w%d.golden", base, width))
			if err := os.WriteFile(goldenPath, out.Bytes(), 0o644); err != nil {
				fatalf("write %s: %v", goldenPath, err)
			}
			fmt.Fprintf(os.Stdout, "wrote %s\n", goldenPath)
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func parseGoldenWidth(name string) (string, int, bool) {
	if !strings.HasSuffix(name, ".golden") {
		return "", 0, false
	}
	name = strings.TrimSuffix(name, ".golden")
	idx := strings.LastIndex(name, ".w")
	if idx == -1 {
		return "", 0, false
	}
	width, err := strconv.Atoi(name[idx+2:])
	if err != nil || width <= 0 {
		return "", 0, false
	}
	return name[:idx], width, true
}
