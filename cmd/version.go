package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set via -ldflags at build time; it defaults to "dev" for
// local builds.
var Version = "dev"

func init() {
	var versionCommand = &cobra.Command{
		Use:   "version",
		Short: "Print the version of tracecore",
		Long:  "Show version and build information for the selective tracing engine.",
		Run: func(cmd *cobra.Command, args []string) {
			generateVersionOutput(os.Stdout)
		},
	}
	RootCommand.AddCommand(versionCommand)
}

func generateVersionOutput(out io.Writer) {
	fmt.Fprintln(out, "Version: "+Version)
	fmt.Fprintln(out, "Go Version: "+runtime.Version())
	fmt.Fprintln(out, "OS/Arch: "+runtime.GOOS+"/"+runtime.GOARCH)
}
