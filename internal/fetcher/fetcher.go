package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/ivlev/promoreel/internal/system"
)

var ErrNoResults = errors.New("no videos found")

// Source is the part of the stock API the fetcher needs.
type Source interface {
	Search(ctx context.Context, query string) ([]Video, error)
	Open(ctx context.Context, link string) (io.ReadCloser, error)
}

// Fetcher downloads stock clips into Dir, skipping files that are already
// there.
type Fetcher struct {
	Source  Source
	Dir     string
	Quality string
}

func New(src Source, dir, quality string) *Fetcher {
	return &Fetcher{Source: src, Dir: dir, Quality: quality}
}

// Path is where filename is stored.
func (f *Fetcher) Path(filename string) string {
	return filepath.Join(f.Dir, filename)
}

// Fetch makes sure Dir/filename holds a clip for query and returns its path.
// On failure no file is created.
func (f *Fetcher) Fetch(ctx context.Context, query, filename string) (string, error) {
	path := f.Path(filename)
	if system.FileExists(path) {
		fmt.Printf("[*] Using cached %s\n", path)
		return path, nil
	}

	fmt.Printf("[*] Searching for %s...\n", query)
	videos, err := f.Source.Search(ctx, query)
	if err != nil {
		return "", err
	}

	var file VideoFile
	found := false
	for _, v := range videos {
		if file, found = SelectFile(v, f.Quality); found {
			break
		}
	}
	if !found {
		log.Printf("[!] No videos found for %q", query)
		return "", fmt.Errorf("%q: %w", query, ErrNoResults)
	}

	fmt.Printf("[*] Downloading %s (%s %dx%d)...\n", filename, file.Quality, file.Width, file.Height)
	body, err := f.Source.Open(ctx, file.Link)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filename, err)
	}
	defer body.Close()

	n, err := system.WriteAtomic(path, body)
	if err != nil {
		return "", err
	}
	fmt.Printf("[+++] Downloaded %s (%d bytes)\n", filename, n)
	return path, nil
}

// Job is one clip to fetch.
type Job struct {
	Query    string
	Filename string
}

// FetchAll fetches every job in order. Failures are logged and skipped; the
// returned map holds the errors by file name.
func (f *Fetcher) FetchAll(ctx context.Context, jobs []Job) map[string]error {
	failed := map[string]error{}
	for _, j := range jobs {
		if ctx.Err() != nil {
			failed[j.Filename] = ctx.Err()
			continue
		}
		if _, err := f.Fetch(ctx, j.Query, j.Filename); err != nil {
			if !errors.Is(err, ErrNoResults) {
				log.Printf("[!] Failed to fetch %s: %v", j.Filename, err)
			}
			failed[j.Filename] = err
		}
	}
	return failed
}
