package client

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxNameAttempts bounds the _1, _2, ... search.
const maxNameAttempts = 10000

// SafeBaseName reduces an offered name to a plain file name that cannot escape
// the download directory.
func SafeBaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	switch base {
	case ".", "..", "/", "":
		return "download"
	}
	return base
}

// CandidateName returns the n-th disambiguated name: report.pdf, report_1.pdf, report_2.pdf...
func CandidateName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		// dotfile such as ".bashrc"
		return fmt.Sprintf("%s_%d", name, n)
	}
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// CreateUnique creates a new file in dir without ever touching an existing one.
// Creation is exclusive, so a name lost to a concurrent writer moves on to the next suffix.
func CreateUnique(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name = SafeBaseName(name)
	for n := 0; n < maxNameAttempts; n++ {
		path := filepath.Join(dir, CandidateName(name, n))
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, nil
		}
		if !stderrors.Is(err, fs.ErrExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no free name for %s in %s", name, dir)
}

// OfferName turns a local path into the single token sent in SENDFILE_REQUEST.
func OfferName(path string) string {
	return strings.Join(strings.Fields(filepath.Base(path)), "_")
}
