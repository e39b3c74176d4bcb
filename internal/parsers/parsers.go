// Package parsers turns raw filing bytes into typed extractor partials.
// Every parser follows the same contract: malformed input never propagates
// as an error, it comes back as an unavailable partial with warnings.
package parsers

import (
	"fmt"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// Result is the common face of every parser output. Each concrete partial
// embeds model.Partial and exposes it here.
type Result interface {
	Envelope() *model.Partial
}

// ParseFunc parses one document body into a partial.
type ParseFunc func(data []byte) Result

// Registry routes a form type to its parser. Unknown forms produce an
// unsupported partial rather than an error.
type Registry struct {
	byForm map[model.FormType]ParseFunc
}

// NewRegistry returns a registry with the standard form parsers installed.
func NewRegistry() *Registry {
	r := &Registry{byForm: make(map[model.FormType]ParseFunc)}
	r.Register(model.Form4, func(data []byte) Result {
		return &InsiderResult{ParseForm4(data)}
	})
	r.Register(model.FormSC13D, func(data []byte) Result {
		return &HoldingResult{ParseSC13(data, model.FormSC13D)}
	})
	r.Register(model.FormSC13G, func(data []byte) Result {
		return &HoldingResult{ParseSC13(data, model.FormSC13G)}
	})
	r.Register(model.FormDEF14, func(data []byte) Result {
		return ParseDEF14A(data)
	})
	return r
}

// Register installs fn for one form type, replacing any prior entry.
func (r *Registry) Register(ft model.FormType, fn ParseFunc) {
	r.byForm[ft] = fn
}

// Parse dispatches to the registered parser. Unknown form types return a
// plain unavailable partial tagged unsupported.
func (r *Registry) Parse(ft model.FormType, data []byte) Result {
	fn, ok := r.byForm[ft]
	if !ok {
		p := &unsupported{}
		p.Warn(fmt.Sprintf("unsupported form type %q", ft))
		return p
	}
	return fn(data)
}

type unsupported struct {
	model.Partial
}

func (u *unsupported) Envelope() *model.Partial { return &u.Partial }

// InsiderResult adapts a single-filing Form 4 parse to the Result interface.
// Activity is nil when the filing could not be parsed.
type InsiderResult struct {
	Activity *model.InsiderActivity
}

func (r *InsiderResult) Envelope() *model.Partial {
	return &model.Partial{Available: r.Activity != nil}
}

// HoldingResult adapts an SC 13D/G parse to the Result interface. Holding is
// nil when the filing could not be parsed.
type HoldingResult struct {
	Holding *model.InstitutionalHolding
}

func (r *HoldingResult) Envelope() *model.Partial {
	return &model.Partial{Available: r.Holding != nil}
}
