package mapper_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semmap/mapper"
)

func TestBuilderNamespaceValidation(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		uri     string
		wantErr string
	}{
		{"valid", "ex", "http://example.org/", ""},
		{"default prefix", "", "http://example.org/default#", ""},
		{"invalid namespace", "ex", "not a valid namespace", "not a valid namespace"},
		{"invalid prefix", "not a valid prefix", "http://example.org/", "not a valid prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapper.NewBuilder().Namespace(tt.prefix, tt.uri)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, mapper.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuilderDuplicateMappings(t *testing.T) {
	b := mapper.NewBuilder()
	require.NoError(t, b.Namespace("ex", "http://example.org/"))
	require.NoError(t, b.Map("ex:Dog", reflect.TypeOf(Dog{})))

	err := b.Map("ex:Dog", reflect.TypeOf(Puppy{}))
	assert.True(t, mapper.IsConfigError(err), "same IRI twice")

	err = b.Map("ex:Hound", reflect.TypeOf(Dog{}))
	assert.True(t, mapper.IsConfigError(err), "same type twice")

	err = b.Map("has space", reflect.TypeOf(Puppy{}))
	assert.True(t, mapper.IsConfigError(err))
}

func TestBuilderIsolation(t *testing.T) {
	b := mapper.NewBuilder()
	require.NoError(t, b.Namespace("ex", "http://example.org/"))
	first := b.Build()

	require.NoError(t, b.Namespace("ex", "http://other.example/"))
	require.NoError(t, b.Map("ex:Dog", reflect.TypeOf(Dog{})))
	second := b.Build()

	assert.Equal(t, "http://example.org/", first.Namespaces()["ex"])
	assert.Equal(t, 0, first.Registry().Len())
	assert.Equal(t, "http://other.example/", second.Namespaces()["ex"])
	assert.Equal(t, 1, second.Registry().Len())
}

func TestDefaultNamespaceDrivesPredicates(t *testing.T) {
	m := newMapper(t, mapper.WithNamespace("", "http://example.org/default#"))

	res, err := m.Write(&Primitives{Str: "x"})
	require.NoError(t, err)

	quads := res.Graph.Quads()
	require.Len(t, quads, 1)
	assert.Equal(t, "<http://example.org/default#str>", quads[0].Predicate.String())
	assert.Contains(t, res.Subject.String(), "http://example.org/default#")
}
