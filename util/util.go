package util

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileExists checks if a path exists (any type, symlinks followed)
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists checks if a path exists and is a directory
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RealPath returns the canonical absolute form of path with symlinks
// resolved, like realpath(3) without the requirement that path exists.
//
// Components are resolved one at a time. A symlink is followed even when
// its target is missing, so a dangling link resolves to the path it points
// at. Components that cannot be examined are kept as they are, and a
// symlink loop stops resolution at the looping link. The only error is a
// failure to determine the working directory for a relative path.
func RealPath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		path = wd + "/" + path
	}

	resolved, _ := joinRealPath("/", path, map[string]*string{})
	return resolved, nil
}

// joinRealPath resolves rest relative to the already resolved base. seen
// maps each symlink being resolved to its result (nil while in progress).
// It reports false when a symlink loop was hit.
func joinRealPath(base, rest string, seen map[string]*string) (string, bool) {
	if filepath.IsAbs(rest) {
		base = "/"
	}

	parts := strings.Split(rest, "/")
	for i, name := range parts {
		switch name {
		case "", ".":
			continue
		case "..":
			base = filepath.Dir(base)
			continue
		}

		next := filepath.Join(base, name)
		info, err := os.Lstat(next)
		if err != nil || info.Mode()&fs.ModeSymlink == 0 {
			base = next
			continue
		}

		if r, ok := seen[next]; ok {
			if r != nil {
				base = *r
				continue
			}
			// Loop
			return filepath.Join(append([]string{next}, parts[i+1:]...)...), false
		}

		target, err := os.Readlink(next)
		if err != nil {
			base = next
			continue
		}

		seen[next] = nil
		resolved, ok := joinRealPath(base, target, seen)
		if !ok {
			return filepath.Join(append([]string{resolved}, parts[i+1:]...)...), false
		}
		seen[next] = &resolved
		base = resolved
	}

	return base, true
}

// JoinUnder joins p beneath root. p is treated as rooted at root even when
// it is absolute, so "/proc" under "/srv/chroot" is "/srv/chroot/proc".
func JoinUnder(root, p string) string {
	if root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(root, filepath.Clean("/"+p))
}

// FormatDuration formats a duration as a short human-readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	seconds := int64(d.Round(time.Second) / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	seconds = seconds % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
