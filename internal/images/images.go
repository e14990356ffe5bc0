// Package images picks an illustration for a post.
package images

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// FallbackURL is used when the images folder is missing or empty.
const FallbackURL = "https://images.unsplash.com/photo-1530631673369-bc20fdb32288?q=80&w=1760&auto=format&fit=crop"

// Source picks a random image from a local folder, falling back to a stock URL.
type Source struct {
	dir string
}

func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Pick returns a local file path from the folder, or FallbackURL.
func (s *Source) Pick() string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return FallbackURL
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			candidates = append(candidates, filepath.Join(s.dir, e.Name()))
		}
	}
	if len(candidates) == 0 {
		return FallbackURL
	}
	return candidates[rand.Intn(len(candidates))]
}

// IsURL reports whether the picked image is a remote URL rather than a file path.
func IsURL(image string) bool {
	return strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://")
}
