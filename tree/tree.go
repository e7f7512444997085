// Package tree finds compressed streams below a directory and renders the
// matches as a tree.
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	connector       = "├── "
	nextPrefix      = "│   "
	connectorChild  = "└── "
	nextPrefixChild = "    "
)

type OptsFn func(opts *Config)

type Config struct {
	exclude  []string
	suffixes []string
}

func NewConfig(o ...OptsFn) *Config {
	cfg := &Config{}
	for _, opts := range o {
		opts(cfg)
	}
	return cfg
}

// WithExclude skips entries whose name starts with any of the prefixes.
func WithExclude(prefixes ...string) OptsFn {
	return func(opts *Config) {
		opts.exclude = append(opts.exclude, prefixes...)
	}
}

// WithSuffix keeps only files ending in one of the suffixes. Directories
// left without matches are pruned.
func WithSuffix(suffixes ...string) OptsFn {
	return func(opts *Config) {
		opts.suffixes = append(opts.suffixes, suffixes...)
	}
}

type Node struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size,omitempty"`
	Children []*Node `json:"children,omitempty"`

	path  string
	isDir bool
}

type Tree struct {
	cfg  *Config
	fs   afero.Fs
	root *Node
	path string
}

func NewTree(fs afero.Fs, path string, cfg *Config) *Tree {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Tree{
		fs:   fs,
		path: path,
		root: &Node{Name: filepath.Base(path), path: path, isDir: true},
		cfg:  cfg,
	}
}

func (t *Tree) MakeTree() error {
	if t.fs == nil {
		return errors.New("nil filesystem")
	}
	if t.path == "." {
		t.root.Name = "."
	}
	t.root.Children = nil
	_, err := t.buildNode(t.path, t.root)
	return err
}

// Files returns the paths of all matched files in display order.
func (t *Tree) Files() []string {
	var files []string
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, child := range n.Children {
			if child.isDir {
				walk(child)
				continue
			}
			files = append(files, child.path)
		}
	}
	walk(t.root)
	return files
}

// TotalSize sums the sizes of all matched files.
func (t *Tree) TotalSize() int64 {
	var total int64
	var walk func(n *Node)
	walk = func(n *Node) {
		total += n.Size
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(t.root)
	return total
}

func (t *Tree) ToJSON() (string, error) {
	data, err := json.MarshalIndent(t.root, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *Tree) ToMarkdown() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "- %s\n", t.root.Name)
	for _, child := range t.root.Children {
		t.writeMarkdown(&b, child, "  ")
	}
	return b.String()
}

func (t *Tree) ToString() string {
	var b strings.Builder
	b.WriteString(t.root.Name + "\n")
	t.writeTreeFormat(&b, t.root, "")
	return b.String()
}

func (t *Tree) writeTreeFormat(b *strings.Builder, node *Node, prefix string) {
	for i, child := range node.Children {
		conn, next := connector, nextPrefix
		if i == len(node.Children)-1 {
			conn, next = connectorChild, nextPrefixChild
		}

		_, _ = fmt.Fprintf(b, "%s%s%s\n", prefix, conn, label(child))

		if len(child.Children) > 0 {
			t.writeTreeFormat(b, child, prefix+next)
		}
	}
}

func (t *Tree) writeMarkdown(b *strings.Builder, node *Node, prefix string) {
	_, _ = fmt.Fprintf(b, "%s- %s\n", prefix, label(node))
	for _, child := range node.Children {
		t.writeMarkdown(b, child, "  "+prefix)
	}
}

func label(n *Node) string {
	if n.isDir {
		return n.Name
	}
	return fmt.Sprintf("%s (%d bytes)", n.Name, n.Size)
}

// buildNode fills parent with the entries of currentPath and reports whether
// any file below it matched.
func (t *Tree) buildNode(currentPath string, parent *Node) (bool, error) {
	entries, err := afero.ReadDir(t.fs, currentPath)
	if err != nil {
		return false, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	matched := false
	for _, entry := range entries {
		if t.isEntryExcluded(entry.Name()) {
			continue
		}

		child := &Node{
			Name:  entry.Name(),
			path:  filepath.Join(currentPath, entry.Name()),
			isDir: entry.IsDir(),
		}

		if entry.IsDir() {
			ok, err := t.buildNode(child.path, child)
			if err != nil {
				return false, err
			}
			if !ok && len(t.cfg.suffixes) > 0 {
				continue
			}
			matched = matched || ok
		} else {
			if !t.isSuffixMatched(entry.Name()) {
				continue
			}
			child.Size = entry.Size()
			matched = true
		}

		parent.Children = append(parent.Children, child)
	}
	return matched, nil
}

func (t *Tree) isEntryExcluded(name string) bool {
	for _, pattern := range t.cfg.exclude {
		if strings.HasPrefix(name, pattern) {
			return true
		}
	}
	return false
}

func (t *Tree) isSuffixMatched(name string) bool {
	if len(t.cfg.suffixes) == 0 {
		return true
	}
	for _, suffix := range t.cfg.suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
