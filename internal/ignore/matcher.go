// Package ignore implements the glob-pattern gate applied to paths during
// a scan: a mutable set of patterns compiled to anchored, basename-only
// regex.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// defaultPatterns covers VCS metadata, build outputs, common binaries, OS
// files, and the daemon's own state files.
var defaultPatterns = []string{
	".git", ".svn", ".hg",
	"node_modules", "target", "dist", "build",
	"*.o", "*.obj", "*.exe", "*.dll", "*.so", "*.dylib",
	".DS_Store", "Thumbs.db",
	"kestr.db", ".kestr_ignore",
}

// Matcher holds a compiled set of glob patterns and matches path basenames
// against them.
type Matcher struct {
	mu       sync.RWMutex
	patterns []compiled
}

type compiled struct {
	src string
	re  *regexp.Regexp
}

// New returns an empty Matcher.
func New() *Matcher {
	return &Matcher{}
}

// AddDefaults appends the built-in ignore list.
func (m *Matcher) AddDefaults() error {
	for _, p := range defaultPatterns {
		if err := m.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// Add compiles and appends a single glob pattern.
func (m *Matcher) Add(pattern string) error {
	re, err := compile(pattern)
	if err != nil {
		return fmt.Errorf("ignore: compile %q: %w", pattern, err)
	}
	m.mu.Lock()
	m.patterns = append(m.patterns, compiled{src: pattern, re: re})
	m.mu.Unlock()
	return nil
}

// Load appends patterns from a text file: one per line, blank lines and
// lines starting with '#' are skipped, leading/trailing ASCII whitespace
// is trimmed.
func (m *Matcher) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.Trim(scanner.Text(), " \t\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := m.Add(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Check matches path's basename against every compiled pattern. It
// returns true as soon as any pattern matches.
func (m *Matcher) Check(path string) bool {
	base := basename(path)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.patterns {
		if c.re.MatchString(base) {
			return true
		}
	}
	return false
}

func basename(path string) string {
	path = strings.TrimRight(path, "/\\")
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// compile translates a glob pattern into an anchored regex per spec:
// '*' -> any run of characters, '?' -> any single character, '.' is
// literal, '/' matches either path separator, everything else is
// regex-escaped.
func compile(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.':
			b.WriteString(`\.`)
		case '/', '\\':
			b.WriteString(`[/\\]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
