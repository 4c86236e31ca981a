// Command morphd serves the built-in morph applications over websockets.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/morph/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┬─┐┌─┐┬ ┬
  ││││ │├┬┘├─┘├─┤
  ┴ ┴└─┘┴└─┴  ┴ ┴
`

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "morphd",
		Short: "Serve morph applications",
		Long: `morphd hosts morph applications on the server.

Each browser tab gets a session holding the application model and a
document mirror. Events arrive over a websocket, the view is reconciled
on the server, and the resulting DOM mutations are streamed back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		renderCmd(),
		appsCmd(),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the morphd ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
