package main

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nobonobo/folio-room/host/config"
	"github.com/nobonobo/folio-room/host/graph"
	"github.com/nobonobo/folio-room/host/world"
)

type options struct {
	configPath string
	envFiles   []string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "room",
		Short:         "Compose the room scene from its asset manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath, opts.envFiles...)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = cfg.NewLogger(cmd.ErrOrStderr())
			slog.SetDefault(opts.logger)
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "room.toml", "path to the TOML configuration")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env", []string{".env"}, "dotenv files loaded before reading the environment")

	cmd.AddCommand(
		newComposeCommand(opts),
		newManifestCommand(opts),
	)
	return cmd
}

func newComposeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compose",
		Short: "Load the base group, build every object and print the scene graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := compose(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), result.Root)
			if len(result.Report.Failures) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), formatFailures(result.Report.Failures))
			}
			return nil
		},
	}
}

func newManifestCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Validate the asset manifest and list its groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := readManifest(assetsFS(opts.cfg), opts.cfg.Assets.Manifest)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, group := range manifest.Groups {
				fmt.Fprintf(out, "%s (%d)\n", group.Name, len(group.Items))
				for _, item := range group.Items {
					fmt.Fprintf(out, "  %-12s %s\n", item.Name, item.Source)
				}
			}
			return nil
		},
	}
}

func printTree(out io.Writer, root *graph.Root) {
	for _, node := range root.Nodes() {
		printNode(out, node, 0)
	}
}

func printNode(out io.Writer, node *graph.Node, depth int) {
	position := node.Position()
	line := fmt.Sprintf("%s%s (%.2f, %.2f, %.2f)",
		strings.Repeat("  ", depth), node.Name(),
		position.X, position.Y, position.Z,
	)
	if surface := node.Material(); surface != nil {
		line += " [" + surface.Name + "]"
	}
	fmt.Fprintln(out, line)
	for _, child := range node.Children() {
		printNode(out, child, depth+1)
	}
}

func formatFailures(failures []world.Failure) string {
	wordWrap := func(text string, maxLineLength int) iter.Seq[string] {
		return func(yield func(string) bool) {
			runes := []rune(text)
			for len(runes) > maxLineLength {
				if !yield(string(runes[:maxLineLength])) {
					return
				}
				runes = runes[maxLineLength:]
			}
			if !yield(string(runes)) {
				return
			}
		}
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "%d object(s) were left out of the room:\n", len(failures))
	for _, failure := range failures {
		prefix := "- "
		for line := range wordWrap(failure.Error(), 78) {
			fmt.Fprintln(&builder, prefix+line)
			prefix = "  "
		}
	}
	return strings.TrimSuffix(builder.String(), "\n")
}
