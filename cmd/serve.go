// file: cmd/serve.go
// version: 1.0.0
// guid: 5b6c7d8e-9f0a-1b2c-3d4e-5f6a7b8c9d0e

package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/bookshelf/internal/config"
	"github.com/jdfalk/bookshelf/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over HTTP",
		Long: `Serve the library as a JSON API.

The library file is watched, and edits made by other programs are picked up
without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg := config.AppConfig
			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			srv := server.NewServer(a.store, server.ServerConfig{
				Host:               cfg.Server.Host,
				Port:               cfg.Server.Port,
				ReadTimeout:        cfg.Server.ReadTimeout,
				WriteTimeout:       cfg.Server.WriteTimeout,
				IdleTimeout:        cfg.Server.IdleTimeout,
				RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
				RateLimitBurst:     cfg.Server.RateLimitBurst,
				MaxBodyBytes:       cfg.Server.MaxBodyBytes,
				Version:            Version,
			})

			if a.olStore != nil {
				srv.SetLookupCache(a.olStore)
			}

			if cfg.Server.WatchLibrary {
				if err := srv.WatchLibrary(a.storage); err != nil {
					log.Printf("[WARN] Not watching library file: %v", err)
				}
			}

			log.Printf("[INFO] Serving %d books from %s", a.store.Len(), a.storage.Path())
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().String("host", "localhost", "address to listen on")
	cmd.Flags().String("port", "8080", "port to listen on")
	cmd.Flags().Bool("watch", true, "reload the library when its file changes")
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.watch_library", cmd.Flags().Lookup("watch"))

	return cmd
}
