package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/morph/internal/demo"
	"github.com/vango-dev/morph/internal/errors"
)

func renderCmd() *cobra.Command {
	var (
		configPath string
		app        string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the first view of an application as HTML",
		Long: `Render the initial view of an application into its mount element
and print the HTML, the same markup the page handler embeds.

Examples:
  morphd render
  morphd render --app todo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, "", app)
			if err != nil {
				return err
			}
			entry, err := demo.Lookup(cfg.App)
			if err != nil {
				return err
			}
			srv := entry.NewServer(cfg.ServerConfig(nil))
			defer srv.Shutdown(cmd.Context())

			html, err := srv.RenderHTML()
			if err != nil {
				return errors.New(errors.CodeRenderFailed).Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to morph.yaml or morph.json")
	cmd.Flags().StringVar(&app, "app", "", "Application to render")

	return cmd
}
