// file: cmd/menu.go
// version: 1.0.0
// guid: 1d2e3f4a-5b6c-7d8e-9f0a-1b2c3d4e5f6a

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jdfalk/bookshelf/internal/config"
	"github.com/jdfalk/bookshelf/internal/menu"
)

func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive menu",
		Long:  "Run the interactive menu even when standard input is not a terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd)
		},
	}
}

func runMenu(cmd *cobra.Command) (err error) {
	a, err := openApp(config.AppConfig)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	return menu.New(a.store, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
}
