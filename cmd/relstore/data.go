package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/internal/cli"
	"github.com/aretw0/relstore/internal/codec"
	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/entity"
)

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(store *relstore.Store) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, backend, err := cli.OpenStore(cmd.Context(), cfg, nil, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(store)
}

func withTable(cmd *cobra.Command, name string, fn func(t *entity.Table) error) error {
	return withStore(cmd, func(store *relstore.Store) error {
		t, err := store.Table(name)
		if err != nil {
			return err
		}
		return fn(t)
	})
}

func printJSON(w io.Writer, v any) error {
	data, err := codec.MarshalIndent(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <table> <json>",
		Short: "Create or update an entity",
		Long: `Saves a JSON object into a table. Objects without an "id" are created with a fresh
id; objects with one replace the stored entity.`,
		Example: `  relstore put books '{"title":"Dune","year":1965}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := codec.DecodeEntity([]byte(args[1]))
			if err != nil {
				return fmt.Errorf("invalid entity: %w", err)
			}
			return withTable(cmd, args[0], func(t *entity.Table) error {
				saved, err := t.Save(cmd.Context(), e)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Print one entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTable(cmd, args[0], func(t *entity.Table) error {
				e, err := t.Find(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), e)
			})
		},
	}
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls <table>",
		Short:   "List the entities of a table",
		Example: `  relstore ls books --where year=1965 --where genre=fiction`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, _ := cmd.Flags().GetStringArray("where")
			return withTable(cmd, args[0], func(t *entity.Table) error {
				var filter *entity.Filter
				if len(pairs) > 0 {
					attrs := make(map[string]any, len(pairs))
					for _, pair := range pairs {
						k, raw, ok := strings.Cut(pair, "=")
						if !ok || k == "" {
							return fmt.Errorf("%w: --where expects key=value, got %q", domain.ErrSchema, pair)
						}
						v, err := t.Schema().ParseValue(k, raw)
						if err != nil {
							return err
						}
						attrs[k] = v
					}
					filter = entity.Match(attrs)
				}

				entities, err := t.Where(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entities)
			})
		},
	}
	cmd.Flags().StringArrayP("where", "w", nil, "Filter by key=value (repeatable, all must match)")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <table> <id>...",
		Short: "Destroy entities",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTable(cmd, args[0], func(t *entity.Table) error {
				for _, id := range args[1:] {
					if _, err := t.Destroy(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Destroyed %s %s\n", t.Name(), id)
				}
				return nil
			})
		},
	}
}
