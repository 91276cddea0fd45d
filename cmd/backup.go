// file: cmd/backup.go
// version: 1.0.0
// guid: 8e9f0a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/bookshelf/internal/backup"
	"github.com/jdfalk/bookshelf/internal/config"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore library backups",
	}

	cmd.PersistentFlags().String("dir", "backups", "backup directory")
	viper.BindPFlag("backup.dir", cmd.PersistentFlags().Lookup("dir"))

	cmd.AddCommand(newBackupCreateCmd(), newBackupListCmd(), newBackupRestoreCmd())
	return cmd
}

func backupConfig() backup.BackupConfig {
	cfg := backup.DefaultBackupConfig()
	cfg.BackupDir = config.AppConfig.Backup.Dir
	cfg.MaxBackups = config.AppConfig.Backup.MaxBackups
	return cfg
}

func newBackupCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Back up the library file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := backup.CreateBackup(config.AppConfig.LibraryPath, backupConfig())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d books to %s\n", info.BookCount, info.Path)
			return err
		},
	}

	cmd.Flags().Int("keep", 10, "number of backups to keep (0 keeps all)")
	viper.BindPFlag("backup.max_backups", cmd.Flags().Lookup("keep"))
	return cmd
}

func newBackupListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			backups, err := backup.ListBackups(config.AppConfig.Backup.Dir)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeJSON(w, backups)
			case formatYAML:
				return writeYAML(w, backups)
			}
			if len(backups) == 0 {
				_, err := fmt.Fprintln(w, "No backups found.")
				return err
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSIZE\tCREATED")
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Filename, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the library file with a backup",
		Long: `Replace the library file with the one stored in a backup. The backup is
checked before anything is written. A running "serve" picks up the restored
file automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := backup.RestoreBackup(args[0], config.AppConfig.LibraryPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Restored %d books to %s\n", count, config.AppConfig.LibraryPath)
			return err
		},
	}
}
