// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/jdfalk/bookshelf/internal/config"
)

// Version is set at build time with -ldflags "-X github.com/jdfalk/bookshelf/cmd.Version=...".
var Version = "dev"

// NewRootCmd builds the command tree. Each call returns a fresh tree so
// flag state is never shared between invocations.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "bookshelf",
		Short: "Keep a personal catalog of books by ISBN",
		Long: `Bookshelf keeps a personal book catalog in a JSON file.

Books are added by ISBN, either with a title and author you type in or with
details looked up from Open Library. Run without a subcommand in a terminal
to get the interactive menu, or use "serve" for the web API.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.InOrStdin()) {
				return cmd.Help()
			}
			return runMenu(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bookshelf.yaml)")
	pf.String("library", "library.json", "path to the library JSON file")
	pf.String("lookup-url", "https://openlibrary.org", "Open Library base URL")
	pf.Duration("lookup-timeout", 10*time.Second, "timeout for a single ISBN lookup")
	pf.String("lookup-cache", "", "directory for the local lookup cache (disabled when empty)")
	pf.Bool("no-lookup", false, "disable ISBN metadata lookups")
	pf.BoolP("verbose", "v", false, "log library and lookup activity to stderr")

	viper.BindPFlag("library_path", pf.Lookup("library"))
	viper.BindPFlag("lookup.base_url", pf.Lookup("lookup-url"))
	viper.BindPFlag("lookup.timeout", pf.Lookup("lookup-timeout"))
	viper.BindPFlag("lookup.cache_path", pf.Lookup("lookup-cache"))

	rootCmd.AddCommand(
		newMenuCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newGetCmd(),
		newListCmd(),
		newImportCmd(),
		newServeCmd(),
		newBackupCmd(),
		newCacheCmd(),
	)

	return rootCmd
}

// Execute runs the command tree, canceling the command context on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func initConfig(cmd *cobra.Command, cfgFile string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bookshelf")
	}

	if err := viper.ReadInConfig(); err == nil {
		log.Printf("[INFO] Using config file: %s", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if noLookup, _ := cmd.Flags().GetBool("no-lookup"); noLookup {
		viper.Set("lookup.enabled", false)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose && cmd.Name() != "serve" {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(cmd.ErrOrStderr())
	}

	config.InitConfig()
	return config.AppConfig.Validate()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
