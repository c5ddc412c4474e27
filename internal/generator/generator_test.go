package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/quartermaster/internal/vars"
)

// writeDeployDir lays out a service directory with deploy/var files and a
// deploy config.
func writeDeployDir(t *testing.T, varFiles map[string]string, config string) string {
	t.Helper()
	root := t.TempDir()
	varDir := filepath.Join(root, "deploy", "var")
	require.NoError(t, os.MkdirAll(varDir, 0755))

	for name, content := range varFiles {
		require.NoError(t, os.WriteFile(filepath.Join(varDir, name), []byte(content), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "deploy", "config.yml"), []byte(config), 0644))
	return root
}

func TestFindDeployDir(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		root := writeDeployDir(t, nil, "{}")
		dir, err := FindDeployDir(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "deploy"), dir)
	})

	t.Run("missing deploy dir", func(t *testing.T) {
		_, err := FindDeployDir(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deploy dir")
	})

	t.Run("not a directory", func(t *testing.T) {
		_, err := FindDeployDir(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
	})
}

func TestFindVarsFiles(t *testing.T) {
	root := writeDeployDir(t, map[string]string{
		"defaults.var": "A=1\n",
		"prod.var":     "A=2\n",
	}, "{}")
	deployDir := filepath.Join(root, "deploy")

	t.Run("defaults then cluster", func(t *testing.T) {
		files := FindVarsFiles(deployDir, "prod")
		require.Len(t, files, 2)
		assert.Equal(t, "defaults.var", filepath.Base(files[0]))
		assert.Equal(t, "prod.var", filepath.Base(files[1]))
	})

	t.Run("missing cluster file skipped", func(t *testing.T) {
		files := FindVarsFiles(deployDir, "staging")
		require.Len(t, files, 1)
		assert.Equal(t, "defaults.var", filepath.Base(files[0]))
	})
}

func TestLoadDeployConfig(t *testing.T) {
	varset := vars.New()
	varset.Set("SERVICE_NAME", "api")

	t.Run("sequence with raw substitution", func(t *testing.T) {
		root := writeDeployDir(t, nil, `
- id: /${SERVICE_NAME}
  image: registry/${SERVICE_NAME}
- name: ${SERVICE_NAME}
  image: other
`)
		apps, err := LoadDeployConfig(filepath.Join(root, "deploy"), varset)
		require.NoError(t, err)
		require.Len(t, apps, 2)
		assert.Equal(t, "/api", apps[0]["id"])
		assert.Equal(t, "api", apps[1]["name"])
	})

	t.Run("single mapping normalized", func(t *testing.T) {
		root := writeDeployDir(t, nil, "id: /api\nimage: img\n")
		apps, err := LoadDeployConfig(filepath.Join(root, "deploy"), varset)
		require.NoError(t, err)
		require.Len(t, apps, 1)
		assert.Equal(t, "/api", apps[0]["id"])
	})

	t.Run("substitution in key position", func(t *testing.T) {
		varset := vars.New()
		varset.Set("FIELD", "image")
		root := writeDeployDir(t, nil, "id: /api\n${FIELD}: img\n")
		apps, err := LoadDeployConfig(filepath.Join(root, "deploy"), varset)
		require.NoError(t, err)
		assert.Equal(t, "img", apps[0]["image"])
	})

	t.Run("scalar document rejected", func(t *testing.T) {
		root := writeDeployDir(t, nil, "just a string\n")
		_, err := LoadDeployConfig(filepath.Join(root, "deploy"), varset)
		require.Error(t, err)
	})
}

func TestRunEndToEnd(t *testing.T) {
	root := writeDeployDir(t, map[string]string{
		"defaults.var": "SERVICE_NAME=api\nMEM=256\n",
		"prod.var":     "MEM=512\n",
	}, `
- id: /${SERVICE_NAME}
  image: registry/${SERVICE_NAME}:latest
  cpus: 0.25
  mem: ${MEM}
  disk: 100
  ports:
    - container_port: 8080
- name: ${SERVICE_NAME}-worker
  image: registry/worker:latest
`)
	outDir := t.TempDir()

	report, err := Run(Options{Path: root, Cluster: "prod", OutputDir: outDir})
	require.NoError(t, err)
	assert.False(t, report.HasErrors())

	// Marathon artifact for app 1.
	data, err := os.ReadFile(filepath.Join(outDir, "marathon-1.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "/api", doc["id"])
	assert.Equal(t, float64(512), doc["mem"], "prod.var must override defaults.var")

	// Compose artifact for app 2.
	data, err = os.ReadFile(filepath.Join(outDir, "compose-2.yml"))
	require.NoError(t, err)
	var composeDoc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &composeDoc))
	services := composeDoc["services"].(map[string]any)
	assert.Contains(t, services, "api-worker")
}

func TestRunUnknownFieldSkipsAppButNotOthers(t *testing.T) {
	root := writeDeployDir(t, map[string]string{
		"defaults.var": "SERVICE_NAME=api\n",
	}, `
- id: /bad
  image: img
  cpus: 1.0
  mem: 128
  disk: 0
  bogus_field: nope
- id: /good
  image: img
  cpus: 1.0
  mem: 128
  disk: 0
`)
	outDir := t.TempDir()

	report, err := Run(Options{Path: root, OutputDir: outDir})
	require.NoError(t, err)
	require.True(t, report.HasErrors())
	assert.Contains(t, report.Errors[0].Error(), "bogus_field")
	assert.Contains(t, report.Errors[0].Error(), "application 1")

	// The invalid app produced no artifact; the valid one did.
	_, err = os.Stat(filepath.Join(outDir, "marathon-1.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(outDir, "marathon-2.json"))
	assert.NoError(t, err)
}

func TestRunRequiredFieldMissing(t *testing.T) {
	root := writeDeployDir(t, nil, `
- id: /api
  image: img
  cpus: 1.0
  mem: 128
`)
	outDir := t.TempDir()

	report, err := Run(Options{Path: root, OutputDir: outDir})
	require.NoError(t, err)
	require.True(t, report.HasErrors())
	assert.Contains(t, report.Errors[0].Error(), `"disk"`)

	_, err = os.Stat(filepath.Join(outDir, "marathon-1.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunBuiltinVars(t *testing.T) {
	root := writeDeployDir(t, nil, `
- name: svc-${CLUSTER}
  image: img
  dummy: true
`)
	outDir := t.TempDir()

	report, err := Run(Options{Path: root, Cluster: "prod", OutputDir: outDir})
	require.NoError(t, err)
	require.False(t, report.HasErrors())

	data, err := os.ReadFile(filepath.Join(outDir, "dummy-1.txt"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"CLUSTER": "prod"`)
	assert.Contains(t, text, "DEPLOY_ID")
}
