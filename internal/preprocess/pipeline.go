// Package preprocess rewrites proprietary note syntax into portable
// markdown, deferring anything that needs filesystem or network access to
// typed embed markers resolved in a later pass.
//
// The pipeline is a fixed, order-dependent sequence of pure text stages.
// Embed extraction must run before wikilink conversion because both share
// the bracket syntax; swapping them would rewrite embeds as plain links.
// No stage short-circuits: recoverable faults degrade to "leave the
// directive unchanged" and append to the result's diagnostics.
package preprocess

// Stage is one pure text transform over the shared result record.
type Stage interface {
	Name() string
	Apply(r *Result)
}

// Pipeline runs the stages in their fixed order.
type Pipeline struct {
	stages []Stage
}

// New creates a pipeline with the canonical stage order:
// frontmatter, link filter, embed extraction, wikilink conversion,
// callout conversion, title backfill.
func New() *Pipeline {
	return &Pipeline{
		stages: []Stage{
			&frontmatterStage{},
			&linkFilterStage{},
			&embedStage{},
			&wikilinkStage{},
			&calloutStage{},
			&titleStage{},
		},
	}
}

// Run executes every stage over the result. Stages never abort the run;
// diagnostics accumulate in r.Errors and r.Warnings.
func (p *Pipeline) Run(r *Result) {
	for _, stage := range p.stages {
		stage.Apply(r)
	}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
