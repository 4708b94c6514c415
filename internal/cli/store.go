package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridboard/pkg/persist"
	"github.com/matzehuels/gridboard/pkg/storage"
	"github.com/matzehuels/gridboard/pkg/theme"
)

// storeCommand creates the storage management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the stored dashboard state",
	}

	cmd.AddCommand(c.storeClearCommand())
	cmd.AddCommand(c.storePathCommand())

	return cmd
}

// storeClearCommand creates the "store clear" subcommand.
func (c *CLI) storeClearCommand() *cobra.Command {
	var keepTheme bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved layout and theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			backend, err := c.openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			store := persist.NewStore(backend, c.Logger)
			had, err := store.Has(ctx)
			if err != nil {
				return err
			}
			if err := store.Clear(ctx); err != nil {
				return err
			}
			cleared := 0
			if had {
				cleared++
			}
			if !keepTheme {
				_, ok, err := backend.Get(ctx, theme.Key)
				if err != nil {
					return err
				}
				if err := backend.Delete(ctx, theme.Key); err != nil {
					return fmt.Errorf("clear theme: %w", err)
				}
				if ok {
					cleared++
				}
			}

			if cleared == 0 {
				printInfo("Store is empty")
				return nil
			}
			printSuccess("Cleared %d stored entries", cleared)
			printDetail("Storage: %s", describeStorage(cfg.Storage))
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepTheme, "keep-theme", false, "keep the theme preferences")
	return cmd
}

// storePathCommand creates the "store path" subcommand.
func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where dashboard state is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Println(describeStorage(cfg.Storage))
			return nil
		},
	}
}

// describeStorage names the location of a storage backend.
func describeStorage(cfg storage.Config) string {
	var loc string
	switch cfg.Kind {
	case storage.KindFile, "":
		loc = cfg.Dir
	case storage.KindRedis:
		loc = "redis://" + cfg.Redis.Addr
		if cfg.Redis.Addr == "" {
			loc = "redis://localhost:6379"
		}
	case storage.KindMongo:
		loc = cfg.Mongo.URI
		if loc == "" {
			loc = "mongodb://localhost:27017"
		}
	case storage.KindSQLite:
		loc = "sqlite:" + cfg.SQLite
	default:
		loc = string(cfg.Kind)
	}
	if cfg.Namespace != "" {
		loc += " (" + cfg.Namespace + ")"
	}
	return loc
}
