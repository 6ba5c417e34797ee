package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/internal/database"
)

// migrateCmd creates the army tables without starting an editor session.
func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the SQL schema of the configured storage backend",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(c.configDir); err != nil {
				config.LoadDefaults()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.OutOrStdout(), cmd.ErrOrStderr(), config.GetStorageConfig())
		},
	}
}

func migrate(out, logOut io.Writer, cfg config.StorageConfig) error {
	m := database.NewManager(zerolog.New(logOut).With().Timestamp().Logger())

	var err error
	switch cfg.Type {
	case "postgres":
		err = m.ConnectPostgres(cfg.DB)
	case "sqlite":
		if cfg.SQLite.Path == "" {
			return errors.New("in-memory sqlite is migrated on every run, set storage.sqlite.path")
		}
		err = m.ConnectSqlite(cfg.SQLite.Path)
	default:
		return fmt.Errorf("storage type %q has no schema to migrate", cfg.Type)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Setup(); err != nil {
		return err
	}
	fmt.Fprintf(out, "migrated %s schema\n", m.DB.Dialector.Name())
	return nil
}
