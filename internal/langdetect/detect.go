// Package langdetect guesses the language of a code block that arrived
// without a fence tag.
package langdetect

import (
	"bytes"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Unknown is returned when no language could be determined.
const Unknown = "text"

var classifierCandidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript", "Ruby", "Rust",
	"Java", "C", "C++", "SQL", "JSON", "YAML", "HTML", "CSS", "Dockerfile",
}

type pattern struct {
	lang  string
	match func(code []byte, text string) bool
}

// Patterns are checked in order, before the classifier. They cover snippets
// too short for the classifier to be confident about.
var patterns = []pattern{
	{"go", func(code []byte, _ string) bool {
		return bytes.HasPrefix(code, []byte("package ")) || bytes.Contains(code, []byte("func main() {"))
	}},
	{"rust", func(_ []byte, text string) bool {
		return strings.Contains(text, "fn main()") || strings.Contains(text, "println!") || strings.Contains(text, "let mut ")
	}},
	{"python", func(_ []byte, text string) bool {
		return strings.Contains(text, "def ") && strings.Contains(text, "):") || strings.Contains(text, "__name__")
	}},
	{"html", func(code []byte, _ string) bool {
		lower := bytes.ToLower(code)
		return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html"))
	}},
	{"json", func(code []byte, _ string) bool {
		return (bytes.HasPrefix(code, []byte("{")) && bytes.HasSuffix(code, []byte("}")) ||
			bytes.HasPrefix(code, []byte("[")) && bytes.HasSuffix(code, []byte("]"))) &&
			bytes.Contains(code, []byte(`"`))
	}},
	{"dockerfile", func(code []byte, _ string) bool {
		return bytes.HasPrefix(code, []byte("FROM ")) && bytes.Contains(code, []byte("\nRUN "))
	}},
	{"sql", func(_ []byte, text string) bool {
		upper := strings.ToUpper(text)
		for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "CREATE "} {
			if strings.HasPrefix(upper, kw) {
				return true
			}
		}
		return false
	}},
	{"javascript", func(_ []byte, text string) bool {
		return strings.Contains(text, "console.log") || strings.Contains(text, "=>") && strings.Contains(text, "const ")
	}},
	{"yaml", func(code []byte, _ string) bool {
		return yamlKeys(code) >= 2
	}},
}

// Detect returns a lower-case fence tag for code, or Unknown.
func Detect(code []byte) string {
	lang, _ := DetectOK(code)
	return lang
}

// DetectOK is Detect with a flag reporting whether the guess is confident.
func DetectOK(code []byte) (string, bool) {
	trimmed := bytes.TrimSpace(code)
	if len(trimmed) == 0 {
		return Unknown, false
	}
	if lang, safe := enry.GetLanguageByShebang(trimmed); safe {
		return normalize(lang), true
	}
	text := string(trimmed)
	for _, p := range patterns {
		if p.match(trimmed, text) {
			return p.lang, true
		}
	}
	if lang, safe := enry.GetLanguageByClassifier(trimmed, classifierCandidates); safe && lang != "" {
		return normalize(lang), true
	}
	return Unknown, false
}

func yamlKeys(code []byte) int {
	n := 0
	for _, line := range bytes.Split(code, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if bytes.HasPrefix(line, []byte("- ")) {
			n++
			continue
		}
		if bytes.Contains(line, []byte(": ")) && !bytes.ContainsAny(line, "({") && line[0] != '"' {
			n++
		}
	}
	return n
}

func normalize(lang string) string {
	if lang == "Shell" {
		return "bash"
	}
	return strings.ToLower(lang)
}
