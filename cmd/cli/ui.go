package cli

import (
	"github.com/spf13/cobra"

	"github.com/lansweep/lansweep/internal/metrics"
	"github.com/lansweep/lansweep/internal/netinfo"
	"github.com/lansweep/lansweep/internal/scanner"
	"github.com/lansweep/lansweep/internal/tui"
)

var uiNetwork string

// uiCmd represents the ui command.
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Run the interactive terminal interface",
	Long: `Run lansweep as an interactive terminal application with live
progress, a device table and one-key export.`,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)

	uiCmd.Flags().StringVarP(&uiNetwork, "network", "n", "", "Network to scan in CIDR notation (default: autodetect)")
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	network, err := resolveNetwork(uiNetwork)
	if err != nil {
		return err
	}

	engine, err := scanner.New(cfg, metrics.Default())
	if err != nil {
		return err
	}
	defer engine.Close()

	return tui.Run(tui.NewModel(cfg, engine, network))
}
