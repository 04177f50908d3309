package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status      string     `json:"status"` // "ready", "warnings", "errors"
	Renderer    []toolInfo `json:"renderer"`
	Rasterizers []toolInfo `json:"rasterizers"`
	ImageTools  []toolInfo `json:"image_tools"`
	Env         envInfo    `json:"environment"`
	System      systemInfo `json:"system"`
	Warnings    []string   `json:"warnings,omitempty"`
	Errors      []string   `json:"errors,omitempty"`
}

// toolInfo is one external tool probe.
type toolInfo struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

type envInfo struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// requiredTools must both exist for any conversion to work.
var requiredTools = []string{"pandoc", "typst"}

// rasterizerTools generate PDF previews; one is enough.
var rasterizerTools = []string{"pdftoppm", "mutool", "gs"}

// imageTools transcode exotic raster formats; one is enough, and even
// zero only degrades webp/heic handling.
var imageTools = []string{"magick", "convert", "sips"}

// runDoctorCmd executes the doctor command and returns an exit code:
// 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor()

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor() *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env:    envInfo{OS: runtime.GOOS, Arch: runtime.GOARCH},
	}

	for _, tool := range requiredTools {
		info := probeTool(tool)
		result.Renderer = append(result.Renderer, info)
		if !info.Found {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s not found on PATH; install it to convert notes", tool))
		}
	}

	result.Rasterizers = probeAny(rasterizerTools)
	if !anyFound(result.Rasterizers) {
		result.Warnings = append(result.Warnings,
			"no PDF rasterizer found (pdftoppm, mutool, or gs); embedded PDFs will render as links without previews")
	}

	result.ImageTools = probeAny(imageTools)
	if !anyFound(result.ImageTools) {
		result.Warnings = append(result.Warnings,
			"no external image tool found (magick, convert, or sips); only common raster formats will embed")
	}

	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// probeTool locates one tool and asks it for its version.
func probeTool(name string) toolInfo {
	info := toolInfo{Name: name}

	path, err := exec.LookPath(name)
	if err != nil {
		return info
	}
	info.Found = true
	info.Path = path

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- fixed tool names
	if err == nil {
		if line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n"); line != "" {
			info.Version = line
		}
	}
	return info
}

func probeAny(names []string) []toolInfo {
	infos := make([]toolInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, probeTool(name))
	}
	return infos
}

func anyFound(infos []toolInfo) bool {
	for _, info := range infos {
		if info.Found {
			return true
		}
	}
	return false
}

// checkSystem verifies the temp directory is writable; scratch files,
// previews, and fetched images all land there.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "obsidian-typst-pdf-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "obsidian-typst-pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Renderer")
	printToolSection(w, r.Renderer, "[ERROR]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PDF previews")
	printToolSection(w, r.Rasterizers, "[WARN]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Image conversion")
	printToolSection(w, r.ImageTools, "[WARN]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func printToolSection(w io.Writer, infos []toolInfo, missingTag string) {
	for _, info := range infos {
		if info.Found {
			if info.Version != "" {
				fmt.Fprintf(w, "  [OK] %s: %s (%s)\n", info.Name, info.Path, info.Version)
			} else {
				fmt.Fprintf(w, "  [OK] %s: %s\n", info.Name, info.Path)
			}
		} else {
			fmt.Fprintf(w, "  %s %s: not found\n", missingTag, info.Name)
		}
	}
}
