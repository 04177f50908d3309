package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageLayoutFlags holds page geometry flags.
type pageLayoutFlags struct {
	size        string
	orientation string
	margin      float64 // all four sides at once
	marginTop   float64
	marginRight float64
	marginBot   float64
	marginLeft  float64
}

// typographyFlags holds font flags.
type typographyFlags struct {
	bodyFont    string
	headingFont string
	monoFont    string
	fontSize    int
}

// embedFlags holds embed handling flags.
type embedFlags struct {
	pdfs     bool
	allFiles bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	output   string
	vault    string
	workers  int
	timeout  string
	format   string
	template string
	engine   string

	page   pageLayoutFlags
	fonts  typographyFlags
	embeds embedFlags
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

func addPageLayoutFlags(fs *flag.FlagSet, f *pageLayoutFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a4, a5, a3, letter, legal, tabloid")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "all margins in cm")
	fs.Float64Var(&f.marginTop, "margin-top", 0, "top margin in cm")
	fs.Float64Var(&f.marginRight, "margin-right", 0, "right margin in cm")
	fs.Float64Var(&f.marginBot, "margin-bottom", 0, "bottom margin in cm")
	fs.Float64Var(&f.marginLeft, "margin-left", 0, "left margin in cm")
}

func addTypographyFlags(fs *flag.FlagSet, f *typographyFlags) {
	fs.StringVar(&f.bodyFont, "body-font", "", "body font family")
	fs.StringVar(&f.headingFont, "heading-font", "", "heading font family")
	fs.StringVar(&f.monoFont, "mono-font", "", "monospace font family")
	fs.IntVar(&f.fontSize, "font-size", 0, "body font size in points (6-72)")
}

func addEmbedFlags(fs *flag.FlagSet, f *embedFlags) {
	fs.BoolVar(&f.pdfs, "embed-pdfs", false, "link original PDFs after their previews")
	fs.BoolVar(&f.allFiles, "embed-all-files", false, "link every embedded file, not just documents")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVar(&f.vault, "vault", "", "vault root for embed resolution (default: note's directory)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g. 30s, 2m)")
	fs.StringVar(&f.format, "format", "", "output format: standard, single-page")
	fs.StringVar(&f.template, "template", "", "Typst template path")
	fs.StringVar(&f.engine, "engine", "", "Typst binary name or path")

	addCommonFlags(fs, &f.common)
	addPageLayoutFlags(fs, &f.page)
	addTypographyFlags(fs, &f.fonts)
	addEmbedFlags(fs, &f.embeds)

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
