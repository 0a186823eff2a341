package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Siblings lists files next to path that share its stem and carry ext
// (case-insensitive). "<stem><ext>" comes first, followed by
// "<stem>.<tag><ext>" files in name order.
func Siblings(path, ext string) ([]string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	dir := filepath.Dir(path)
	stem := Stem(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	ret := make([]string, 0)
	var tagged []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		switch {
		case name == stem:
			ret = append(ret, filepath.Join(dir, e.Name()))
		case strings.HasPrefix(name, stem+"."):
			tagged = append(tagged, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(tagged)
	return append(ret, tagged...), nil
}
