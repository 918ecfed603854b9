package doctree

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Encode writes the binary form of root to w.
func Encode(w io.Writer, root *Node) error {
	if err := gob.NewEncoder(w).Encode(root); err != nil {
		return fmt.Errorf("encode doctree: %w", err)
	}
	return nil
}

// Decode reads a tree previously written by Encode.
func Decode(r io.Reader) (*Node, error) {
	var root Node
	if err := gob.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode doctree: %w", err)
	}
	return &root, nil
}

// WriteFile persists root at path, creating parent directories.
func WriteFile(path string, root *Node) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, root); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads a tree written by WriteFile.
func ReadFile(path string) (*Node, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(bufio.NewReader(f))
}
