package guidesource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source yields every guide it knows about.
type Source interface {
	Load(ctx context.Context) ([]Entry, error)
	String() string
}

// DirSource reads guide files from a single directory (not recursive).
type DirSource struct {
	Dir string
}

func (s DirSource) String() string { return s.Dir }

func (s DirSource) Load(ctx context.Context) ([]Entry, error) {
	items, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read guide dir: %w", err)
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.IsDir() || strings.HasPrefix(it.Name(), ".") || !Supported(it.Name()) {
			continue
		}
		names = append(names, it.Name())
	}
	sort.Strings(names)

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := LoadFile(filepath.Join(s.Dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func LoadFile(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("read guide file: %w", err)
	}
	e, err := Decode(filepath.Base(path), data)
	if err != nil {
		return Entry{}, err
	}
	e.Source = path
	return e, nil
}

// New resolves location to a Source: a gs://bucket/prefix URI or a local directory.
func New(ctx context.Context, location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("empty guide source")
	}
	if strings.HasPrefix(location, "gs://") {
		bucket, prefix, err := ParseGCSURI(location)
		if err != nil {
			return nil, err
		}
		return NewGCSSource(ctx, bucket, prefix)
	}
	return DirSource{Dir: location}, nil
}
