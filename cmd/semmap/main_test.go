package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semmap/config"
	"github.com/c360studio/semmap/export"
	"github.com/c360studio/semmap/graph"
)

const people = `<http://example.org/alice> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://xmlns.com/foaf/0.1/Person> .
<http://example.org/alice> <http://xmlns.com/foaf/0.1/name> "Alice" .
<http://example.org/alice> <http://xmlns.com/foaf/0.1/knows> _:b0 .
_:b0 <http://xmlns.com/foaf/0.1/name> "Bob" .
<http://example.org/acme> <http://xmlns.com/foaf/0.1/name> "Acme" .
`

// fixture writes the sample graph and a config using a Badger store in a
// temp directory.
func fixture(t *testing.T) (dataPath, configPath string) {
	t.Helper()
	dir := t.TempDir()

	dataPath = filepath.Join(dir, "people.nq")
	require.NoError(t, os.WriteFile(dataPath, []byte(people), 0644))

	cfg := &config.Config{
		Namespaces: map[string]string{"ex": "http://example.org/"},
		Storage: config.StorageConfig{
			Backend: "badger",
			Dir:     filepath.Join(dir, "badger"),
		},
	}
	configPath = filepath.Join(dir, "semmap.yaml")
	require.NoError(t, cfg.SaveToFile(configPath))
	return dataPath, configPath
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "semmap version "+Version)
}

func TestConvertToTurtle(t *testing.T) {
	data, cfg := fixture(t)

	out, err := execute(t, "", "-c", cfg, "convert", data, "--to", "turtle")
	require.NoError(t, err)
	assert.Contains(t, out, "@prefix ex: <http://example.org/> .")
	assert.Contains(t, out, "ex:alice")
	assert.Contains(t, out, "a foaf:Person")
}

func TestConvertThroughCBOR(t *testing.T) {
	data, cfg := fixture(t)
	snapshot := filepath.Join(t.TempDir(), "people.cbor")

	_, err := execute(t, "", "-c", cfg, "convert", data, "-o", snapshot)
	require.NoError(t, err)

	out, err := execute(t, "", "-c", cfg, "convert", snapshot, "--to", "nquads")
	require.NoError(t, err)

	want, err := export.ParseNQuads([]byte(people))
	require.NoError(t, err)
	got, err := export.ParseNQuads([]byte(out))
	require.NoError(t, err)
	assert.True(t, graph.Isomorphic(want, got), "graph changed on round trip:\n%s", out)
}

func TestConvertFromStdin(t *testing.T) {
	_, cfg := fixture(t)

	out, err := execute(t, people, "-c", cfg, "convert", "-", "--to", "ntriples")
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(out, " .\n"))
}

func TestConvertRejectsUnreadableFormat(t *testing.T) {
	_, cfg := fixture(t)
	path := filepath.Join(t.TempDir(), "people.ttl")
	require.NoError(t, os.WriteFile(path, []byte("@prefix ex: <http://example.org/> ."), 0644))

	_, err := execute(t, "", "-c", cfg, "convert", path, "--to", "nquads")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	data, cfg := fixture(t)

	out, err := execute(t, "", "-c", cfg, "inspect", data)
	require.NoError(t, err)
	assert.Contains(t, out, "statements: 5")
	assert.Contains(t, out, "subjects:   3")
	assert.Contains(t, out, "entities:   2")
	assert.Contains(t, out, "ex:alice a foaf:Person (4 statements)")
	assert.Contains(t, out, "ex:acme (1 statements)")
}

func TestStoreLifecycle(t *testing.T) {
	data, cfg := fixture(t)

	out, err := execute(t, "", "-c", cfg, "store", "import", data)
	require.NoError(t, err)
	assert.Equal(t, "stored 2 entities\n", out)

	out, err = execute(t, "", "-c", cfg, "store", "list")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/acme\nhttp://example.org/alice\n", out)

	out, err = execute(t, "", "-c", cfg, "store", "get", "ex:alice", "--to", "nquads")
	require.NoError(t, err)
	g, err := export.ParseNQuads([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())

	_, err = execute(t, "", "-c", cfg, "store", "delete", "<http://example.org/alice>")
	require.NoError(t, err)

	out, err = execute(t, "", "-c", cfg, "store", "list")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/acme\n", out)

	_, err = execute(t, "", "-c", cfg, "store", "get", "ex:alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not stored")
}

func TestConfigShow(t *testing.T) {
	_, cfg := fixture(t)

	out, err := execute(t, "", "-c", cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: badger")
	assert.Contains(t, out, "identity_hash: md5")
}

func TestConfigInit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	out, err := execute(t, "", "config", "init")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, config.UserConfigDir, config.UserConfigFile)+"\n", out)

	work := t.TempDir()
	t.Chdir(work)
	_, err = execute(t, "", "config", "init", "--project")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(work, config.ProjectConfigFile))

	_, err = execute(t, "", "config", "init", "--project")
	assert.Error(t, err, "existing project config must not be overwritten")
}

func TestParseSubject(t *testing.T) {
	_, cfg := fixture(t)
	cmd := rootCmd()
	cmd.SetErr(io.Discard)
	app, err := newApp(cmd, &globalOptions{configPath: cfg})
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"_:b0", "_:b0"},
		{"<http://example.org/x>", "http://example.org/x"},
		{"http://example.org/x", "http://example.org/x"},
		{"ex:x", "http://example.org/x"},
		{"foaf:Person", "http://xmlns.com/foaf/0.1/Person"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := app.ParseSubject(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, graph.TermString(got))
		})
	}

	_, err = app.ParseSubject("not a subject")
	assert.Error(t, err)
}
