package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend names accepted by Open.
const (
	BackendMemory    = "memory"
	BackendBadger    = "badger"
	BackendJetStream = "jetstream"
)

// Options selects and configures a KV backend.
type Options struct {
	Backend string
	// Dir is the Badger data directory. Empty runs Badger in memory.
	Dir string
	// URL is the NATS server URL for the JetStream backend.
	URL string
	// Bucket is the JetStream KV bucket.
	Bucket string
}

// Open creates the KV selected by opts.Backend. An empty backend is the
// memory store.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (KV, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryKV(), nil
	case BackendBadger:
		return NewBadgerKV(BadgerOptions{
			Dir:      opts.Dir,
			InMemory: opts.Dir == "",
			Logger:   logger,
		})
	case BackendJetStream:
		return ConnectJetStreamKV(ctx, opts.URL, opts.Bucket)
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}
