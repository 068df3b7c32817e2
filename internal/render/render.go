package render

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/oshokin/exe-builder/internal/domain/build"
)

// Artifact names of the rendered files.
const (
	ScriptFilename    = "setup.py"
	CompanionFilename = "build.bat"

	// DefaultMainFilename is referenced when no main file has been captured.
	DefaultMainFilename = "main.py"
)

// Base identifiers understood by cx_Freeze.
const (
	baseIdentifierConsole = "Console"
	baseIdentifierGUI     = "Win32GUI"
)

const (
	scriptTemplateName = "setup.py.tmpl"
	companionFilePath  = "templates/build.bat"
)

//go:embed templates
var templateFS embed.FS

// Engine renders the setup script and serves the companion script.
type Engine struct {
	script    *template.Template
	companion string
}

// scriptData is the view of a configuration seen by setup.py.tmpl.
type scriptData struct {
	Packages     []string
	Excludes     []string
	IncludeFiles []string
	Base         string
	MainFile     string
	Icon         string
	TargetName   string
	AppName      string
	Version      string
	Description  string
	Author       string
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	script, err := template.New(scriptTemplateName).
		Funcs(template.FuncMap{
			"py":     PythonString,
			"pylist": PythonList,
		}).
		ParseFS(templateFS, "templates/"+scriptTemplateName)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", scriptTemplateName, err)
	}

	companion, err := templateFS.ReadFile(companionFilePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", companionFilePath, err)
	}

	return &Engine{
		script:    script,
		companion: string(companion),
	}, nil
}

// RenderScript renders setup.py for the main file and configuration.
// An empty mainFileName falls back to DefaultMainFilename.
func (e *Engine) RenderScript(mainFileName string, cfg build.BuildConfig) (string, error) {
	if mainFileName == "" {
		mainFileName = DefaultMainFilename
	}

	data := &scriptData{
		Packages:     cfg.Packages,
		Excludes:     cfg.ExcludePackages,
		IncludeFiles: cfg.IncludeFiles,
		Base:         BaseIdentifier(cfg.BaseOption),
		MainFile:     mainFileName,
		Icon:         cfg.Icon,
		TargetName:   cfg.AppName + ".exe",
		AppName:      cfg.AppName,
		Version:      cfg.Version,
		Description:  cfg.Description,
		Author:       cfg.Author,
	}

	var buf bytes.Buffer
	if err := e.script.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", scriptTemplateName, err)
	}

	return buf.String(), nil
}

// RenderCompanionScript returns the fixed build.bat text.
func (e *Engine) RenderCompanionScript() string {
	return e.companion
}

// BaseIdentifier maps the base option to the cx_Freeze base name.
func BaseIdentifier(base build.BaseOption) string {
	if base == build.BaseGUI {
		return baseIdentifierGUI
	}

	return baseIdentifierConsole
}
