// Package typstexport converts richly-annotated notes (wikilinks, embeds,
// callouts, YAML frontmatter) to PDF by rewriting them into portable
// markdown and driving pandoc with a Typst PDF engine.
//
// # Quick Start
//
// Create a service, export a note, and close when done:
//
//	svc := typstexport.New()
//	defer svc.Close()
//
//	result, err := svc.Export(ctx, typstexport.Document{
//	    Body: content,
//	    Path: "/vault/Weekly Plan.md",
//	    Root: "/vault",
//	}, "/out/Weekly Plan.pdf", nil)
//
// The result carries the artifact path plus any warnings accumulated
// while rewriting and resolving the note.
//
// # Conversion Pipeline
//
// Conversion happens in two phases. The first is a synchronous, ordered
// set of text stages (frontmatter, link filtering, embed extraction,
// wikilink conversion, callout conversion, title backfill) that rewrite
// proprietary syntax and defer anything needing I/O to typed embed
// markers. The second resolves those markers against the vault with
// multi-strategy fallback, fetches remote images, normalizes image
// formats, generates PDF previews, and finally runs pandoc as a
// supervised subprocess with timeout, cancellation, and cleanup
// guarantees.
//
// # Configuration
//
// Pass an ExportConfig per call for page geometry, typography, template,
// and embed handling. Service-level behavior is set with functional
// options:
//
//	svc := typstexport.New(
//	    typstexport.WithTimeout(2*time.Minute),
//	    typstexport.WithProgress(func(pct int, phase string) { ... }),
//	)
//
// # External Tools
//
// Rendering requires pandoc and a Typst binary on the search path
// (common install directories are probed in addition to PATH). PDF
// previews use whichever of pdftoppm, mutool, or gs is installed;
// missing tools degrade to warnings, never failures of the whole export.
package typstexport
