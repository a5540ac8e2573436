package cli

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tdvu/keyhound/internal/core/config"
	"github.com/tdvu/keyhound/internal/keystore"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [keystore file]",
	Short: "Show keystore parameters without searching",
	Args:  cobra.MaximumNArgs(1),
	Run:   runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) {
	initLogger(config.LoggingConfig{})

	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
		path = cfg.Keystore.Path
	}

	ks, err := keystore.Load(path)
	if err != nil {
		slog.Error("Failed to load keystore", "path", path, "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "File\t%s\n", path)
	fmt.Fprintf(w, "Address\t%s\n", ks.Address)
	fmt.Fprintf(w, "ID\t%s\n", ks.ID)
	fmt.Fprintf(w, "KDF\t%s\n", ks.Params())
	_ = w.Flush()
}
