package source

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeFileName maps a vendor export name to its canonical form:
// "Sales Header.xlsx" becomes "sales_header.xlsx". The extension is lower-cased.
func NormalizeFileName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, stem); err == nil {
		stem = folded
	}
	stem = cases.Lower(language.Und).String(stem)
	stem = strings.Trim(nonWord.ReplaceAllString(stem, "_"), "_")

	return stem + strings.ToLower(ext)
}

// Rename records one file rename performed (or skipped) by RenameDir.
type Rename struct {
	From    string
	To      string
	Skipped bool
	Reason  string
}

// RenameDir normalises the names of every .xlsx and .csv file in dir. A file
// whose normalised name already exists is left alone.
func RenameDir(dir string, dryRun bool) ([]Rename, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read dir %s", dir)
	}

	log := zap.L().With(zap.String("component", "source.rename"))
	var out []Rename
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".xlsx" && ext != ".csv" {
			continue
		}
		target := NormalizeFileName(e.Name())
		if target == e.Name() {
			continue
		}

		r := Rename{From: e.Name(), To: target}
		dst := filepath.Join(dir, target)
		if _, statErr := os.Stat(dst); statErr == nil {
			r.Skipped, r.Reason = true, "target exists"
			log.Warn("rename skipped, target exists", zap.String("from", r.From), zap.String("to", r.To))
			out = append(out, r)
			continue
		}

		if dryRun {
			r.Reason = "dry run"
		} else if err := os.Rename(filepath.Join(dir, e.Name()), dst); err != nil {
			return out, eris.Wrapf(err, "source: rename %s", e.Name())
		} else {
			log.Info("renamed", zap.String("from", r.From), zap.String("to", r.To))
		}
		out = append(out, r)
	}
	return out, nil
}
