package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"
)

// yearPattern matches " (YYYY)": one space, literal parentheses, four digits.
var yearPattern = regexp.MustCompile(` \(([0-9]{4})\)`)

// ParsedPath is the lookup query extracted from a file name.
type ParsedPath struct {
	Title string
	Year  string // four digits, empty when the name carries no year
}

// HasYear reports whether a year was found.
func (p ParsedPath) HasYear() bool {
	return p.Year != ""
}

// baseName returns the final path component without its last extension.
// A name that is only an extension, such as ".hidden", is kept whole.
func baseName(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	ext := filepath.Ext(name)
	if ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// ParsePath extracts a title and optional year from the base name of path.
// The first " (YYYY)" occurrence is removed exactly once; nothing is trimmed.
func ParsePath(path string) ParsedPath {
	name := baseName(path)

	loc := yearPattern.FindStringSubmatchIndex(name)
	if loc == nil {
		return ParsedPath{Title: name}
	}
	return ParsedPath{
		Title: name[:loc[0]] + name[loc[1]:],
		Year:  name[loc[2]:loc[3]],
	}
}

// Parser extracts lookup queries from paths. The zero value only applies the
// strict " (YYYY)" rule.
type Parser struct {
	// ReleaseNames enables a scene release name fallback
	// ("The.Matrix.1999.1080p.BluRay") when the strict rule finds no year.
	ReleaseNames bool
}

// Parse never fails: every path yields a title, possibly the whole base name.
func (p Parser) Parse(path string) ParsedPath {
	parsed := ParsePath(path)
	if parsed.HasYear() || !p.ReleaseNames {
		return parsed
	}

	info, err := ptn.Parse(parsed.Title)
	if err != nil {
		log.Debugf("Release name parse failed for %q: %v", parsed.Title, err)
		return parsed
	}
	title := strings.TrimSpace(info.Title)
	if title == "" {
		return parsed
	}

	out := ParsedPath{Title: title}
	if info.Year > 0 {
		out.Year = strconv.Itoa(info.Year)
	}
	return out
}
