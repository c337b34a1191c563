package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type inputFile struct {
	// label is the root-relative slash path mixed into the digest, so
	// relocating an unchanged tree keeps the fingerprint stable.
	label string
	path  string
}

// Fingerprint hashes the build inputs: every file under the given roots plus
// the raw config bytes. Files are keyed by their root-relative path and
// sorted so the digest is order- and location-independent; missing roots
// contribute nothing (a site may have no static dir).
func Fingerprint(configPath string, roots ...string) (string, error) {
	h := sha256.New()

	if data, err := os.ReadFile(configPath); err == nil {
		h.Write([]byte("config\x00"))
		h.Write(data)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("fingerprint config: %w", err)
	}

	var files []inputFile
	for _, root := range roots {
		base := filepath.Base(filepath.Clean(root))
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && p != root {
					return fs.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			files = append(files, inputFile{
				label: path.Join(base, filepath.ToSlash(rel)),
				path:  p,
			})
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("fingerprint walk %s: %w", root, err)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].label < files[j].label })

	for _, f := range files {
		fh, err := os.Open(f.path)
		if err != nil {
			return "", fmt.Errorf("fingerprint open %s: %w", f.path, err)
		}
		h.Write([]byte(f.label))
		h.Write([]byte{0})
		_, err = io.Copy(h, fh)
		_ = fh.Close()
		if err != nil {
			return "", fmt.Errorf("fingerprint read %s: %w", f.path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
