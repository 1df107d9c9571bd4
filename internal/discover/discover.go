// Package discover finds bridge sources in a directory tree.
package discover

import (
	"bufio"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"bridge-generator/internal/extract"
)

// ManifestExt is the extension of standalone manifest files.
const ManifestExt = ".bridge"

var skipDirs = map[string]struct{}{
	"target":       {},
	"node_modules": {},
	"build":        {},
	"dist":         {},
	"vendor":       {},
}

// Sources returns the bridge sources under root, sorted: every .bridge file
// and every .rs file with a line starting with a bridge attribute. Hidden
// entries, build directories and paths matched by root's .gitignore are
// skipped. Returned paths include root.
func Sources(root string) ([]string, error) {
	gi := loadGitignore(root)

	var out []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		name := d.Name()

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		switch filepath.Ext(name) {
		case ManifestExt:
			out = append(out, path)
		case ".rs":
			ok, err := mentionsBridge(path)
			if err != nil {
				return err
			}

			if ok {
				out = append(out, path)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(out)

	return out, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}

	return gi
}

func mentionsBridge(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		if extract.IsBridgeAttr(strings.TrimSpace(sc.Text())) {
			return true, nil
		}
	}

	return false, sc.Err()
}
