package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/mapper"
	"github.com/c360studio/semmap/vocabulary/semmap"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func backends(t *testing.T) map[string]KV {
	t.Helper()
	b, err := NewBadgerKV(BadgerOptions{InMemory: true, Logger: quietLogger()})
	require.NoError(t, err)
	return map[string]KV{
		"memory": NewMemoryKV(),
		"badger": b,
	}
}

func TestKVBackends(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer kv.Close()

			_, err := kv.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Put(ctx, "b", []byte("2")))
			require.NoError(t, kv.Put(ctx, "a", []byte("1")))
			require.NoError(t, kv.Put(ctx, "a", []byte("one")))

			v, err := kv.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), v)

			keys, err := kv.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)

			require.NoError(t, kv.Delete(ctx, "a"))
			require.NoError(t, kv.Delete(ctx, "a"), "deleting a missing key is not an error")
			_, err = kv.Get(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryKVClosed(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Close())
	_, err := kv.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBadgerRequiresDir(t *testing.T) {
	_, err := NewBadgerKV(BadgerOptions{})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, Options{}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryKV{}, kv)

	kv, err = Open(ctx, Options{Backend: BackendBadger}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &BadgerKV{}, kv)
	require.NoError(t, kv.Close())

	_, err = Open(ctx, Options{Backend: "etcd"}, quietLogger())
	assert.Error(t, err)
}

func TestKeyRoundTrip(t *testing.T) {
	tests := []quad.Value{
		quad.IRI("http://example.org/people/alice#me"),
		quad.IRI(semmap.DefaultNamespace + "0123abcd"),
		quad.BNode("b1"),
	}
	for _, s := range tests {
		key := Key(s)
		assert.Regexp(t, `^[A-Za-z0-9_-]+$`, key)
		back, err := ParseKey(key)
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}

	_, err := ParseKey("!!")
	assert.Error(t, err)
}

type Book struct {
	mapper.Identity
	_       struct{} `rdf:"@type=schema:Book"`
	Title   string   `rdf:"schema:name,id"`
	Authors []string `rdf:"schema:author"`
	Pages   int      `rdf:"schema:numberOfPages"`
}

func newRepository(t *testing.T, kv KV, opts ...RepositoryOption) *Repository {
	t.Helper()
	m, err := mapper.New(
		mapper.WithNamespace("schema", "https://schema.org/"),
		mapper.WithMapping("schema:Book", reflect.TypeOf(Book{})),
		mapper.WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	opts = append([]RepositoryOption{WithLogger(quietLogger())}, opts...)
	return NewRepository(kv, m, opts...)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepository(t, kv)
			defer repo.Close()

			book := &Book{Title: "Dune", Authors: []string{"Frank Herbert"}, Pages: 412}
			subject, err := repo.Save(ctx, book)
			require.NoError(t, err)
			assert.Equal(t, subject, book.ID())

			g, err := repo.Graph(ctx, subject)
			require.NoError(t, err)
			assert.Equal(t, []quad.IRI{"https://schema.org/Book"}, g.Types(subject))

			loaded, err := LoadAs[*Book](ctx, repo, subject)
			require.NoError(t, err)
			assert.Equal(t, book, loaded)

			res, err := repo.Load(ctx, subject, reflect.TypeOf(Book{}))
			require.NoError(t, err)
			assert.Equal(t, "Dune", res.Value.(Book).Title)

			_, err = repo.Save(ctx, &Book{Title: "Emma", Pages: 300})
			require.NoError(t, err)
			subjects, err := repo.Subjects(ctx)
			require.NoError(t, err)
			assert.Len(t, subjects, 2)
			assert.Contains(t, subjects, subject)

			require.NoError(t, repo.Delete(ctx, subject))
			_, err = repo.Graph(ctx, subject)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestRepositoryReplacesGraph(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t, NewMemoryKV())

	book := &Book{Title: "Dune", Pages: 412}
	subject, err := repo.Save(ctx, book)
	require.NoError(t, err)

	book.Pages = 896
	_, err = repo.Save(ctx, book)
	require.NoError(t, err)

	loaded, err := LoadAs[*Book](ctx, repo, subject)
	require.NoError(t, err)
	assert.Equal(t, 896, loaded.Pages)
}

type recordingPublisher struct {
	subjects []string
}

func (r *recordingPublisher) PublishToStream(_ context.Context, subject string, _ []byte) error {
	r.subjects = append(r.subjects, subject)
	return nil
}

func TestRepositoryPublishes(t *testing.T) {
	ctx := context.Background()
	rec := &recordingPublisher{}
	repo := newRepository(t, NewMemoryKV(), WithPublisher(graph.NewPublisher(rec, quietLogger())))

	_, err := repo.Save(ctx, &Book{Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, []string{graph.GraphIngestSubject}, rec.subjects)
}

type failingPublisher struct{}

func (failingPublisher) PublishToStream(context.Context, string, []byte) error {
	return errors.New("stream unavailable")
}

func TestRepositoryPublishFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	repo := newRepository(t, kv, WithPublisher(graph.NewPublisher(failingPublisher{}, quietLogger())))

	book := &Book{Title: "Dune"}
	_, err := repo.Save(ctx, book)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream unavailable")

	_, err = kv.Get(ctx, Key(book.ID()))
	assert.True(t, errors.Is(err, ErrNotFound))
	subjects, err := repo.Subjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestRepositorySkipsForeignKeys(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(ctx, "not-base64!", []byte("x")))
	repo := newRepository(t, kv)

	subjects, err := repo.Subjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}
