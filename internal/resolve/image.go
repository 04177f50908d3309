package resolve

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	// Decoders for the legacy raster containers the Typst engine rejects.
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Sentinel errors for image normalization.
var (
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrNoImageTool      = errors.New("no external image converter found")
)

// rendererNativeFormats are loaded by the Typst engine directly; these
// pass through normalization untouched.
var rendererNativeFormats = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {},
}

// ImageConverter normalizes images into a renderer-supported format.
// Implementations return the path to use in the final document; a
// returned error means the caller should fall back to the original file.
type ImageConverter interface {
	Normalize(path, scratchDir string) (string, error)
}

// externalImageTools are probed in order when in-process decoding fails.
var externalImageTools = []struct {
	name string
	args func(input, output string) []string
}{
	{name: "magick", args: func(in, out string) []string { return []string{in, out} }},
	{name: "convert", args: func(in, out string) []string { return []string{in, out} }},
	{name: "sips", args: func(in, out string) []string {
		return []string{"-s", "format", "png", in, "--out", out}
	}},
}

// stdImageConverter transcodes via x/image decoders first and falls back
// to an external converter CLI for formats Go cannot decode.
type stdImageConverter struct {
	lookPath func(string) (string, error)
	runTool  func(tool string, args []string) error
}

// NewImageConverter returns the default converter.
func NewImageConverter() ImageConverter {
	return &stdImageConverter{
		lookPath: exec.LookPath,
		runTool: func(tool string, args []string) error {
			out, err := exec.Command(tool, args...).CombinedOutput() // #nosec G204 -- tool names come from a fixed table
			if err != nil {
				return fmt.Errorf("%s: %v: %s", tool, err, firstLine(string(out)))
			}
			return nil
		},
	}
}

// Normalize returns a renderer-loadable path for the image. Native
// formats are returned unchanged; bmp/tiff/webp are re-encoded to PNG in
// scratchDir; anything else goes through an external tool.
func (c *stdImageConverter) Normalize(path, scratchDir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := rendererNativeFormats[ext]; ok {
		return path, nil
	}

	dest := pngDestination(path, scratchDir)

	switch ext {
	case ".bmp", ".tiff", ".tif", ".webp":
		if err := transcodeToPNG(path, dest, ext); err == nil {
			return dest, nil
		}
		// In-process decode failed; the external tool may still manage.
	}

	if err := c.convertExternally(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// convertExternally runs the first available converter CLI.
func (c *stdImageConverter) convertExternally(input, output string) error {
	for _, tool := range externalImageTools {
		bin, err := c.lookPath(tool.name)
		if err != nil {
			continue
		}
		if err := c.runTool(bin, tool.args(input, output)); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w for %s: %v", ErrNoImageTool, filepath.Base(input), ErrUnsupportedImage)
}

// transcodeToPNG decodes with the matching x/image decoder and writes a
// PNG to dest.
func transcodeToPNG(path, dest, ext string) error {
	f, err := os.Open(path) // #nosec G304 -- path was resolved under the vault root
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var img image.Image
	switch ext {
	case ".bmp":
		img, err = bmp.Decode(f)
	case ".tiff", ".tif":
		img, err = tiff.Decode(f)
	case ".webp":
		img, err = webp.Decode(f)
	default:
		return ErrUnsupportedImage
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}
	out, err := os.Create(dest) // #nosec G304 -- dest is under our scratch dir
	if err != nil {
		return err
	}

	encErr := png.Encode(out, img)
	closeErr := out.Close()
	if encErr != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("encoding PNG: %w", encErr)
	}
	return closeErr
}

// pngDestination builds the scratch path for a transcoded image.
func pngDestination(path, scratchDir string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(scratchDir, name+".png")
}

// firstLine trims tool output to its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
