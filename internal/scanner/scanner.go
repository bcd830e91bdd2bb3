package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kestr-dev/kestr/internal/hasher"
	"github.com/kestr-dev/kestr/internal/ignore"
)

// hashMemoSize bounds the scanner's own path->hash cache, which skips
// re-hashing files whose size and mtime are unchanged since the last
// scan in this process. Sized
// generously; eviction only trims memory on very large trees.
const hashMemoSize = 50_000

// Scanner performs a recursive, ignore-pruned walk of a root directory,
// producing a FileInfo for every eligible regular file.
type Scanner struct {
	ignore *ignore.Matcher
	memo   *lru.Cache[string, memoEntry]
}

type memoEntry struct {
	size  int64
	mtime int64
	hash  string
}

// New returns a Scanner that prunes paths matched by m.
func New(m *ignore.Matcher) (*Scanner, error) {
	memo, err := lru.New[string, memoEntry](hashMemoSize)
	if err != nil {
		return nil, err
	}
	return &Scanner{ignore: m, memo: memo}, nil
}

// Scan walks root, invoking fn for every eligible regular file. Symlinks
// are never followed (loop-safety). Directories matched by the ignore
// set have their entire subtree pruned before descent. Unreadable
// entries and per-file I/O errors are skipped with a diagnostic; the
// walk continues.
func (s *Scanner) Scan(root string, fn func(FileInfo)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("scanner: skipping unreadable entry", "path", path, "error", err)
			return nil
		}

		if path != root && s.ignore.Check(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		// Symlinks are not followed: a symlink DirEntry's type is
		// reported via its Type() bits without stat-ing the target.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, ok := s.stat(path)
		if !ok {
			return nil
		}
		fn(info)
		return nil
	})
}

func (s *Scanner) stat(path string) (FileInfo, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		slog.Warn("scanner: stat failed, skipping", "path", path, "error", err)
		return FileInfo{}, false
	}

	size := fi.Size()
	mtime := fi.ModTime().UnixMilli()

	if cached, ok := s.memo.Get(path); ok && cached.size == size && cached.mtime == mtime {
		return FileInfo{Path: path, Size: size, Mtime: mtime, Hash: cached.hash}, true
	}

	h := hasher.File(path)
	if h == "" {
		slog.Warn("scanner: hash failed, skipping", "path", path)
		return FileInfo{}, false
	}

	s.memo.Add(path, memoEntry{size: size, mtime: mtime, hash: h})
	return FileInfo{Path: path, Size: size, Mtime: mtime, Hash: h}, true
}
