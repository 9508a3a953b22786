package pipeline

import (
	"strings"

	"github.com/viant/changegate/model/request"
)

// Paths holds the per-program-type destination directories on the target
// host as absolute shell paths. A `*` in a path is substituted with the
// module path code of the request being deployed.
type Paths struct {
	Form    string `yaml:"form" json:"form"`
	Report  string `yaml:"report" json:"report"`
	SQL     string `yaml:"sql" json:"sql"`
	Library string `yaml:"library" json:"library"`
}

// extFallback routes a file whose program type has no path of its own by its
// extension. Both .rdf and .jsp are report formats.
var extFallback = map[string]func(*Paths) string{
	".fmb": func(p *Paths) string { return p.Form },
	".fmx": func(p *Paths) string { return p.Form },
	".pll": func(p *Paths) string { return p.Library },
	".plx": func(p *Paths) string { return p.Library },
	".rdf": func(p *Paths) string { return p.Report },
	".jsp": func(p *Paths) string { return p.Report },
	".sql": func(p *Paths) string { return p.SQL },
}

// Resolve returns the destination directory for a file, preferring the
// request's program type and falling back to the file extension. The second
// return is false when no destination applies.
func (p *Paths) Resolve(programType request.ProgramType, pathCode, ext string) (string, bool) {
	var base string
	switch programType {
	case request.ProgramForm:
		base = p.Form
	case request.ProgramReport:
		base = p.Report
	case request.ProgramSQL:
		base = p.SQL
	case request.ProgramLibrary:
		base = p.Library
	}
	if base == "" {
		if pick, ok := extFallback[strings.ToLower(ext)]; ok {
			base = pick(p)
		}
	}
	if base == "" {
		return "", false
	}
	if strings.Contains(base, "*") {
		if pathCode == "" {
			return "", false
		}
		base = strings.ReplaceAll(base, "*", pathCode)
	}
	return base, true
}
