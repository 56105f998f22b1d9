package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/relstore/internal/codec"
	"github.com/aretw0/relstore/internal/presentation/graph"
	"github.com/aretw0/relstore/internal/presentation/tui"
	"github.com/aretw0/relstore/pkg/schema"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema>",
		Short: "Check a schema file for errors",
		Long:  `Parses and compiles a schema file and reports unsupported types, invalid names and malformed constraints.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiled, err := compileFile(cmd, args[0])
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema %q is valid: %d table(s)\n", compiled.Name(), len(compiled.Tables()))
			return nil
		},
	}
}

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <schema>",
		Short: "Print the tables and fields of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiled, err := compileFile(cmd, args[0])
			if err != nil {
				return err
			}
			d := compiled.Describe()
			out := cmd.OutOrStdout()

			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "json":
				data, err := codec.MarshalIndent(d)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(d); err != nil {
					return err
				}
				return enc.Close()
			case "mermaid":
				fmt.Fprint(out, graph.GenerateMermaid(d))
			case "markdown", "md":
				tty := isTerminal(out)
				if tty {
					tui.PrintBanner(out)
				}
				rendered, err := tui.NewRenderer(tty)(tui.SchemaMarkdown(d))
				if err != nil {
					return err
				}
				fmt.Fprint(out, rendered)
			default:
				return fmt.Errorf("unknown format %q (use markdown, json, yaml or mermaid)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json, yaml or mermaid")
	return cmd
}

func compileFile(cmd *cobra.Command, path string) (*schema.Compiled, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	policy, err := schema.ParseDefaultPolicy(cfg.DefaultPolicy)
	if err != nil {
		return nil, err
	}

	def, err := schema.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return schema.Compile(def, schema.WithDefaultPolicy(policy))
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
