// Package generator drives the deploy config pipeline: variable loading,
// raw substitution, parsing, per-application validation, and per-plugin
// artifact generation.
package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/quartermaster/internal/fileutil"
	"github.com/cameronsjo/quartermaster/internal/gitinfo"
	"github.com/cameronsjo/quartermaster/internal/output"
	"github.com/cameronsjo/quartermaster/internal/schema"
	"github.com/cameronsjo/quartermaster/internal/template"
	"github.com/cameronsjo/quartermaster/internal/ui"
	"github.com/cameronsjo/quartermaster/internal/vars"
)

// Options configures a generation run.
type Options struct {
	// Path is the service directory containing deploy/.
	Path string

	// Cluster selects the per-cluster var file (defaults to "local").
	Cluster string

	// OutputDir is where generated artifacts are written.
	OutputDir string

	// Display receives leveled diagnostics.
	Display *ui.Display
}

// Report collects per-application and per-plugin errors. Processing
// continues past them; the caller decides the exit status.
type Report struct {
	Errors []error
}

func (r *Report) add(err error) {
	r.Errors = append(r.Errors, err)
}

// HasErrors reports whether any application or plugin failed.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// Run executes the full pipeline. The returned error covers fatal setup
// problems (missing deploy dir, unreadable config); per-application
// failures land in the Report instead.
func Run(opts Options) (*Report, error) {
	display := opts.Display
	if display == nil {
		display = ui.New(0)
	}
	if opts.Cluster == "" {
		opts.Cluster = "local"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	deployDir, err := FindDeployDir(opts.Path)
	if err != nil {
		return nil, err
	}

	varset, err := LoadVars(deployDir, opts, display)
	if err != nil {
		return nil, err
	}

	apps, err := LoadDeployConfig(deployDir, varset)
	if err != nil {
		return nil, err
	}
	if dump, err := yaml.Marshal(apps); err == nil {
		display.VVV("Deploy config:\n\n%s", string(dump))
	}

	ctx := &output.Context{Vars: varset, Engine: template.New()}
	plugins := output.Registry(ctx)

	display.VVV("Available output plugins:")
	for _, p := range plugins {
		display.VVV("- %s (%s)", p.Name(), p.Descr())
	}

	report := &Report{}
	for i, app := range apps {
		processApp(app, i+1, plugins, opts, display, report)
	}
	return report, nil
}

// processApp validates one application against the applicable plugin
// schemas and, if valid, generates every needed plugin's artifact. Errors
// are reported and do not abort other applications.
func processApp(app map[string]any, ordinal int, plugins []output.Plugin, opts Options, display *ui.Display, report *Report) {
	var needed []output.Plugin
	var schemas []schema.Fields
	for _, p := range plugins {
		if p.IsNeeded(app) {
			needed = append(needed, p)
			schemas = append(schemas, p.Fields())
		}
	}

	valid := true
	for _, err := range schema.CheckFields(app, schemas) {
		report.add(fmt.Errorf("application %d: %w", ordinal, err))
		display.Error("Failed to load deploy config: application %d: %v", ordinal, err)
		valid = false
	}
	for _, p := range needed {
		for _, err := range schema.ApplyDefaults(app, p.Fields()) {
			report.add(fmt.Errorf("application %d: %w", ordinal, err))
			display.Error("Failed to validate application %d for plugin %s: %v", ordinal, p.Name(), err)
			valid = false
		}
	}
	if !valid {
		return
	}

	for _, p := range needed {
		data, err := p.Generate(app, ordinal)
		if err != nil {
			genErr := &output.GenerateError{Plugin: p.Name(), Ordinal: ordinal, Err: err}
			report.add(genErr)
			display.Error("Failed to generate deploy config: %v", genErr)
			continue
		}

		path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s-%d%s", p.Name(), ordinal, p.FileExt()))
		if err := fileutil.WriteFile(path, data, 0644); err != nil {
			report.add(fmt.Errorf("write %s: %w", path, err))
			display.Error("Failed to write %s: %v", path, err)
			continue
		}
		display.V("Wrote %s", path)
	}
}

// LoadVars builds the frozen variable scope for a run: builtins, git
// metadata, var files, and SOPS-encrypted secrets, in override order.
func LoadVars(deployDir string, opts Options, display *ui.Display) (*vars.Set, error) {
	varset := vars.New()
	varset.Set("CLUSTER", opts.Cluster)
	varset.Set("DEPLOY_ID", uuid.NewString())

	info, err := gitinfo.Lookup(opts.Path)
	if err != nil {
		display.Warning("Could not read git metadata: %v", err)
	} else if info != nil {
		varset.Load(info)
	}

	for _, file := range FindVarsFiles(deployDir, opts.Cluster) {
		display.V("Loading vars from %s", file)
		if err := varset.LoadFile(file); err != nil {
			return nil, err
		}
	}
	for _, file := range findSecretsFiles(deployDir, opts.Cluster) {
		display.V("Loading secrets from %s", file)
		if err := varset.LoadSOPSFile(file); err != nil {
			return nil, err
		}
	}

	if display.Verbosity() >= 2 {
		display.VV("Vars:")
		for _, kv := range varset.Snapshot() {
			display.VV("  %s: %v", kv.Key, kv.Value)
		}
	}

	return varset, nil
}

// FindDeployDir locates the deploy/ directory under a service path.
func FindDeployDir(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("path %s is not a directory", path)
	}

	deployDir := filepath.Join(path, "deploy")
	info, err = os.Stat(deployDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("deploy dir could not be found in %s", path)
	}
	return deployDir, nil
}

// FindVarsFiles returns the var files to load, in override order:
// defaults first, then the cluster-specific file.
func FindVarsFiles(deployDir, cluster string) []string {
	var found []string
	for _, name := range []string{"defaults.var", cluster + ".var"} {
		file := filepath.Join(deployDir, "var", name)
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			found = append(found, file)
		}
	}
	return found
}

// findSecretsFiles returns SOPS-encrypted secrets files, defaults first.
func findSecretsFiles(deployDir, cluster string) []string {
	var found []string
	for _, name := range []string{"secrets.sops.yaml", cluster + ".sops.yaml"} {
		file := filepath.Join(deployDir, "var", name)
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			found = append(found, file)
		}
	}
	return found
}

// LoadDeployConfig reads config.yml, applies raw variable substitution to
// the whole document text, parses it, and normalizes the result to a
// sequence of application descriptors.
func LoadDeployConfig(deployDir string, varset *vars.Set) ([]map[string]any, error) {
	path := filepath.Join(deployDir, "config.yml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deploy config: %w", err)
	}

	substituted := varset.ReplaceVars(string(raw))

	var doc any
	if err := yaml.Unmarshal([]byte(substituted), &doc); err != nil {
		return nil, fmt.Errorf("parse deploy config: %w", err)
	}

	// A single descriptor is normalized to a one-element sequence.
	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("deploy config must be a mapping or a sequence of mappings, got %T", doc)
	}

	apps := make([]map[string]any, 0, len(items))
	for i, item := range items {
		app, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("application %d: expected a mapping, got %T", i+1, item)
		}
		apps = append(apps, app)
	}
	return apps, nil
}
