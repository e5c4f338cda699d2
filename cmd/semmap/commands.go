package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semmap/config"
	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/storage"
)

func convertCmd(opts *globalOptions) *cobra.Command {
	var from, to, output string

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a graph between RDF formats",
		Long: `Convert reads a graph in N-Quads, N-Triples or CBOR and writes it in
any supported format. Use "-" to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			g, err := app.ReadGraph(cmd, args[0], from)
			if err != nil {
				return err
			}
			format, err := app.OutputFormat(to, output)
			if err != nil {
				return err
			}
			return app.WriteGraph(cmd, g, output, format)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Input format (default: from extension, else nquads)")
	cmd.Flags().StringVar(&to, "to", "", "Output format (default: from output extension, else config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func inspectCmd(opts *globalOptions) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Summarize the subjects and types of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			g, err := app.ReadGraph(cmd, args[0], from)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			roots := g.Roots()
			fmt.Fprintf(out, "statements: %d\n", g.Len())
			fmt.Fprintf(out, "subjects:   %d\n", len(g.Subjects()))
			fmt.Fprintf(out, "entities:   %d\n", len(roots))
			ns := app.mapper.Namespaces()
			for _, root := range roots {
				fmt.Fprintf(out, "  %s", ns.Compact(string(root)))
				for _, t := range g.Types(root) {
					fmt.Fprintf(out, " a %s", ns.Compact(string(t)))
				}
				fmt.Fprintf(out, " (%d statements)\n", g.Describe(root).Len())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Input format (default: from extension, else nquads)")
	return cmd
}

func storeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored entity graphs",
	}
	cmd.AddCommand(
		storeImportCmd(opts),
		storeListCmd(opts),
		storeGetCmd(opts),
		storeDeleteCmd(opts),
	)
	return cmd
}

func storeImportCmd(opts *globalOptions) *cobra.Command {
	var (
		from    string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "import <input>",
		Short: "Store each entity of a graph under its subject",
		Long: `Import splits the graph into one description per IRI subject, the
statements about the subject plus those about the blank nodes it reaches,
and stores each one. With --publish the descriptions are also sent to the
knowledge graph ingest stream.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			g, err := app.ReadGraph(cmd, args[0], from)
			if err != nil {
				return err
			}

			repo, err := app.OpenRepository(ctx, publish || app.cfg.NATS.Publish)
			if err != nil {
				return err
			}
			defer repo.Close()

			roots := g.Roots()
			for _, root := range roots {
				if err := repo.SaveGraph(ctx, root, g.Describe(root)); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d entities\n", len(roots))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Input format (default: from extension, else nquads)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Also publish entities to NATS")
	return cmd
}

func storeListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			repo, err := app.OpenRepository(ctx, false)
			if err != nil {
				return err
			}
			defer repo.Close()

			subjects, err := repo.Subjects(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(subjects))
			for _, s := range subjects {
				names = append(names, graph.TermString(s))
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func storeGetCmd(opts *globalOptions) *cobra.Command {
	var to, output string

	cmd := &cobra.Command{
		Use:   "get <subject>",
		Short: "Print the stored graph of a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			subject, err := app.ParseSubject(args[0])
			if err != nil {
				return err
			}
			repo, err := app.OpenRepository(ctx, false)
			if err != nil {
				return err
			}
			defer repo.Close()

			g, err := repo.Graph(ctx, subject)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%s is not stored", graph.TermString(subject))
			}
			if err != nil {
				return err
			}
			format, err := app.OutputFormat(to, output)
			if err != nil {
				return err
			}
			return app.WriteGraph(cmd, g, output, format)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output format (default: from output extension, else config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func storeDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <subject>",
		Short: "Remove the stored graph of a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			subject, err := app.ParseSubject(args[0])
			if err != nil {
				return err
			}
			repo, err := app.OpenRepository(ctx, false)
			if err != nil {
				return err
			}
			defer repo.Close()

			return repo.Delete(ctx, subject)
		},
	}
}

func configCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create configuration",
	}

	var project bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			if !project {
				path, err := config.NewLoader(logger).EnsureUserConfig()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			path := config.ProjectConfigFile
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.DefaultConfig().SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&project, "project", false, "Write "+config.ProjectConfigFile+" in the current directory")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(app.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
