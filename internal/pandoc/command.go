// Package pandoc builds and supervises the external renderer invocation.
//
// The renderer contract is pandoc driving a Typst PDF engine:
//
//	pandoc <input> -o <output> --from <format> --pdf-engine=<engine>
//	    --standalone --embed-resources [--resource-path <dir>]*
//	    --template <template> [-V name=value]* [--pdf-engine-opt <opt>]*
//
// Exit code 0 is success; anything else is classified from stderr.
package pandoc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for command construction.
var (
	ErrUnknownVariable = errors.New("unknown semantic variable")
	ErrMissingInput    = errors.New("command input path cannot be empty")
	ErrMissingOutput   = errors.New("command output path cannot be empty")
)

// DefaultSourceFormat is the pandoc reader used for preprocessed notes.
const DefaultSourceFormat = "markdown+wikilinks_title_after_pipe"

// variableMapping translates one semantic variable to the renderer's
// native name, appending a unit where the native side requires one.
type variableMapping struct {
	native string
	unit   string
}

// semanticVariables is the explicit, total mapping from the semantic
// option names callers use to the template's native variables. New
// semantic options require a new entry here, never ad-hoc string
// concatenation at call sites.
var semanticVariables = map[string]variableMapping{
	"body-font":      {native: "mainfont"},
	"heading-font":   {native: "headingfont"},
	"monospace-font": {native: "monofont"},
	"body-font-size": {native: "fontsize", unit: "pt"},
	"page-size":      {native: "papersize"},
	"orientation":    {native: "orientation"},
	"margin-top":     {native: "margin-top", unit: "cm"},
	"margin-right":   {native: "margin-right", unit: "cm"},
	"margin-bottom":  {native: "margin-bottom", unit: "cm"},
	"margin-left":    {native: "margin-left", unit: "cm"},
	"page-height":    {native: "page-height"},
	"title":          {native: "title"},
}

// defaultVariables fill any semantic variable not overridden by the
// immediate call.
var defaultVariables = map[string]string{
	"body-font":      "Libertinus Serif",
	"heading-font":   "Libertinus Sans",
	"monospace-font": "Liberation Mono",
	"body-font-size": "11",
	"page-size":      "a4",
	"orientation":    "portrait",
	"margin-top":     "2.5",
	"margin-right":   "2.5",
	"margin-bottom":  "2.5",
	"margin-left":    "2.5",
}

// Command describes one renderer invocation. Build produces the argv;
// the zero value is not usable without Input and Output.
type Command struct {
	Input         string
	Output        string
	SourceFormat  string
	EnginePath    string
	TemplatePath  string
	ResourcePaths []string
	Variables     map[string]string // semantic names; translated on Build
	EngineOpts    []string
}

// Build maps the command to the renderer's argument vector. Variables
// are translated through the semantic mapping table and emitted in
// sorted order so the argv is deterministic.
func (c *Command) Build() ([]string, error) {
	if c.Input == "" {
		return nil, ErrMissingInput
	}
	if c.Output == "" {
		return nil, ErrMissingOutput
	}

	format := c.SourceFormat
	if format == "" {
		format = DefaultSourceFormat
	}

	argv := []string{c.Input, "-o", c.Output, "--from", format}
	if c.EnginePath != "" {
		argv = append(argv, "--pdf-engine="+c.EnginePath)
	}
	argv = append(argv, "--standalone", "--embed-resources")

	for _, dir := range c.ResourcePaths {
		argv = append(argv, "--resource-path", dir)
	}

	if c.TemplatePath != "" {
		argv = append(argv, "--template", c.TemplatePath)
	}

	vars, err := translateVariables(c.Variables)
	if err != nil {
		return nil, err
	}
	argv = append(argv, vars...)

	for _, opt := range c.EngineOpts {
		argv = append(argv, "--pdf-engine-opt", opt)
	}

	return argv, nil
}

// translateVariables merges defaults with overrides and renders the -V
// pairs. An override for a semantic name missing from the table is a
// programming error surfaced immediately.
func translateVariables(overrides map[string]string) ([]string, error) {
	merged := make(map[string]string, len(defaultVariables)+len(overrides))
	for name, value := range defaultVariables {
		merged[name] = value
	}
	for name, value := range overrides {
		if _, ok := semanticVariables[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		merged[name] = value
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	argv := make([]string, 0, len(names)*2)
	for _, name := range names {
		value := merged[name]
		if value == "" {
			continue
		}
		mapping := semanticVariables[name]
		if mapping.unit != "" && !strings.HasSuffix(value, mapping.unit) {
			value += mapping.unit
		}
		argv = append(argv, "-V", mapping.native+"="+value)
	}
	return argv, nil
}
