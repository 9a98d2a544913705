// Package docstore holds the source documents that citations are
// verified against.
package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/net/html"
)

// Store is an in-memory corpus keyed by document name. Documents loaded
// from disk are cached so repeated batch runs over the same corpus do
// not re-read and re-parse files.
type Store struct {
	mu    sync.RWMutex
	docs  map[string]string
	cache *gocache.Cache
}

func NewStore() *Store {
	return &Store{
		docs:  make(map[string]string),
		cache: gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// Add registers a document under the given name, replacing any
// previous content.
func (s *Store) Add(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = text
}

// Get returns the text of a named document.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[name]
	return text, ok
}

// Names returns the registered document names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Snapshot returns a copy of the corpus suitable for handing to
// verification code without holding the store lock.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.docs))
	for name, text := range s.docs {
		out[name] = text
	}
	return out
}

// LoadDir loads every supported file in a directory into the store.
// Plain text and markdown are stored as-is; HTML is reduced to its
// visible text. Document names are the file base names. Unsupported
// extensions are skipped.
func (s *Store) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading document dir: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch ext {
		case ".txt", ".md", ".html", ".htm":
		default:
			continue
		}
		if err := s.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// LoadFile loads a single document file into the store.
func (s *Store) LoadFile(path string) error {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	cacheKey := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if cached, found := s.cache.Get(cacheKey); found {
		s.Add(name, cached.(string))
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	text := string(raw)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		text, err = stripHTML(text)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	s.cache.Set(cacheKey, text, gocache.DefaultExpiration)
	s.Add(name, text)
	return nil
}

// stripHTML reduces an HTML document to its visible text, skipping
// script, style and similar non-content elements.
func stripHTML(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(buf.String()), nil
}
