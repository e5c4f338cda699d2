package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/cayleygraph/quad"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/c360studio/semmap/config"
	"github.com/c360studio/semmap/export"
	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/mapper"
	"github.com/c360studio/semmap/storage"
)

// GraphStream is the JetStream stream that captures published entity graphs.
const GraphStream = "GRAPH"

// App wires configuration, mapper and storage for one command invocation.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	mapper *mapper.Mapper

	natsClient *natsclient.Client
}

// newApp loads configuration and builds the mapper.
func newApp(cmd *cobra.Command, opts *globalOptions) (*App, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.logLevel)

	loader := config.NewLoader(logger)
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = loader.LoadFile(opts.configPath)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	m, err := mapper.New(append(cfg.MapperOptions(), mapper.WithLogger(logger))...)
	if err != nil {
		return nil, fmt.Errorf("build mapper: %w", err)
	}

	return &App{cfg: cfg, logger: logger, mapper: m}, nil
}

// Exporter returns an exporter carrying the configured namespaces.
func (a *App) Exporter() *export.Exporter {
	e := export.NewExporter()
	for p, uri := range a.cfg.Namespaces {
		if p != "" {
			e.SetPrefix(p, uri)
		}
	}
	return e
}

// OutputFormat resolves the output format from a flag value, an output path
// and the configured default, in that order.
func (a *App) OutputFormat(flag, path string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if f, ok := export.FormatForPath(path); ok {
		return f, nil
	}
	return export.ParseFormat(a.cfg.Export.Format)
}

// ReadGraph reads the graph at path. "-" reads standard input. The format
// comes from the flag or the file extension and defaults to N-Quads.
func (a *App) ReadGraph(cmd *cobra.Command, path, from string) (*graph.Graph, error) {
	format := export.FormatNQuads
	switch {
	case from != "":
		f, err := export.ParseFormat(from)
		if err != nil {
			return nil, err
		}
		format = f
	case path != "-":
		if f, ok := export.FormatForPath(path); ok {
			format = f
		}
	}
	if info, ok := export.GetFormatInfo(format); ok && !info.Readable {
		return nil, fmt.Errorf("format %s cannot be read", format)
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = bufio.NewReader(f)
	}

	g, err := export.Read(r, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	a.logger.Debug("Read graph", slog.String("path", path), slog.String("format", string(format)), slog.Int("statements", g.Len()))
	return g, nil
}

// WriteGraph writes g to path, or to the command output when path is empty
// or "-".
func (a *App) WriteGraph(cmd *cobra.Command, g *graph.Graph, path string, format export.Format) error {
	if path == "" || path == "-" {
		return a.Exporter().Write(cmd.OutOrStdout(), g, format)
	}
	data, err := a.Exporter().Export(g, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseSubject resolves a subject argument: "_:id" is a blank node, "<iri>"
// and absolute IRIs are taken as is and compact IRIs are expanded.
func (a *App) ParseSubject(s string) (quad.Value, error) {
	if strings.HasPrefix(s, "_:") {
		return quad.BNode(strings.TrimPrefix(s, "_:")), nil
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
	iri, err := a.mapper.Namespaces().Expand(s)
	if err != nil {
		return nil, fmt.Errorf("subject %q: %w", s, err)
	}
	return iri, nil
}

// OpenRepository opens the configured store. With publish set, saved graphs
// are also sent to the knowledge graph over NATS.
func (a *App) OpenRepository(ctx context.Context, publish bool) (*storage.Repository, error) {
	kv, err := storage.Open(ctx, a.cfg.StorageOptions(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Storage.Backend, err)
	}

	opts := []storage.RepositoryOption{storage.WithLogger(a.logger)}
	if publish {
		client, err := a.connectToNATS(ctx)
		if err != nil {
			_ = kv.Close()
			return nil, err
		}
		if err := a.ensureGraphStream(ctx); err != nil {
			_ = kv.Close()
			return nil, err
		}
		opts = append(opts, storage.WithPublisher(graph.NewPublisher(client, a.logger)))
	}
	return storage.NewRepository(kv, a.mapper, opts...), nil
}

// Close releases the NATS connection, if any.
func (a *App) Close(ctx context.Context) {
	if a.natsClient != nil {
		if err := a.natsClient.Close(ctx); err != nil {
			a.logger.Warn("Failed to close NATS client", slog.String("error", err.Error()))
		}
		a.natsClient = nil
	}
}

func (a *App) connectToNATS(ctx context.Context) (*natsclient.Client, error) {
	natsURL := a.cfg.NATS.URL
	if natsURL == "" {
		return nil, errors.New("nats.url is required to publish")
	}

	a.logger.Info("Connecting to NATS", "url", natsURL)

	client, err := natsclient.NewClient(natsURL,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(0),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, natsURL)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		_ = client.Close(ctx)
		return nil, wrapNATSError(err, natsURL)
	}

	a.natsClient = client
	a.logger.Info("Connected to NATS", "url", natsURL)
	return client, nil
}

// ensureGraphStream creates the stream that receives published graphs.
func (a *App) ensureGraphStream(ctx context.Context) error {
	js, err := a.natsClient.JetStream()
	if err != nil {
		return fmt.Errorf("get jetstream: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     GraphStream,
		Subjects: []string{graph.GraphIngestSubject},
		MaxAge:   24 * time.Hour,
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", GraphStream, err)
	}
	a.logger.Debug("JetStream stream ready", "stream", GraphStream)
	return nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	// Check for common connection errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker run -p 4222:4222 nats -js

Or set SEMMAP_NATS_URL to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}
