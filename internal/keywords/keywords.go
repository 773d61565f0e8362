// internal/keywords/keywords.go
//
// Keyword pool for deduction matches.
//
// Responsibilities:
//   - Load the pool from KEYWORDS_FILE or fall back to the embedded default.
//   - Normalize (trim, collapse inner spaces, lowercase) and de-duplicate.
//   - Draw a random pool of distinct keywords for one match.
//
// File format: one keyword per line. "[name]" lines start a section; blank
// lines and "#" comments are ignored. Init runs once (sync.Once).
package keywords

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/AsyncSite/deduction-server/assets"
)

var (
	ErrEmptyPool    = errors.New("keywords: pool is empty")
	ErrPoolTooSmall = errors.New("keywords: pool too small")
)

// Pool is a de-duplicated keyword list with its sections.
type Pool struct {
	words    []string
	sections map[string][]string
	index    map[string]struct{}
}

var (
	initOnce sync.Once
	global   *Pool
	initErr  error
)

// Init loads the process-wide pool exactly once. An empty path uses the
// embedded default.
func Init(path string) error {
	initOnce.Do(func() {
		var r io.Reader = bytes.NewReader(assets.Keywords())
		if path != "" {
			f, err := os.Open(path)
			if err != nil {
				initErr = fmt.Errorf("keywords: open %s: %w", path, err)
				return
			}
			defer f.Close()
			r = f
		}
		global, initErr = Parse(r)
	})
	return initErr
}

// Default returns the pool loaded by Init, loading the embedded one if Init
// was never called.
func Default() *Pool {
	if err := Init(""); err != nil || global == nil {
		return &Pool{sections: map[string][]string{}, index: map[string]struct{}{}}
	}
	return global
}

// Parse reads a keyword file.
func Parse(r io.Reader) (*Pool, error) {
	p := &Pool{sections: map[string][]string{}, index: map[string]struct{}{}}
	section := ""
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			section = Normalize(line[1 : len(line)-1])
			continue
		}
		w := Normalize(line)
		if _, dup := p.index[w]; dup {
			continue
		}
		p.index[w] = struct{}{}
		p.words = append(p.words, w)
		p.sections[section] = append(p.sections[section], w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(p.words) == 0 {
		return nil, ErrEmptyPool
	}
	return p, nil
}

// Normalize lowercases w and collapses runs of whitespace.
func Normalize(w string) string {
	return strings.ToLower(strings.Join(strings.Fields(w), " "))
}

// Len is the number of distinct keywords.
func (p *Pool) Len() int { return len(p.words) }

// All returns a copy of every keyword in file order.
func (p *Pool) All() []string { return slices.Clone(p.words) }

// Contains reports whether w (after normalization) is in the pool.
func (p *Pool) Contains(w string) bool {
	_, ok := p.index[Normalize(w)]
	return ok
}

// Draw returns n distinct keywords in random order.
func (p *Pool) Draw(n int, rng *rand.Rand) ([]string, error) {
	if n < 0 || n > len(p.words) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrPoolTooSmall, n, len(p.words))
	}
	out := make([]string, n)
	for i, j := range rng.Perm(len(p.words))[:n] {
		out[i] = p.words[j]
	}
	return out, nil
}

// Stats returns the keyword count per section ("" for keywords before any
// section header).
func (p *Pool) Stats() map[string]int {
	out := make(map[string]int, len(p.sections))
	for s, ws := range p.sections {
		out[s] = len(ws)
	}
	return out
}
