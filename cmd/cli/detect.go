package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lansweep/lansweep/internal/netinfo"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the detected local network",
	Long: `Detect the active local network without scanning it.

Prints the interface, local IP address and network CIDR that a scan
would use by default.`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	network, err := netinfo.Detect()
	if err != nil {
		return err
	}

	if network.Interface != "" {
		fmt.Printf("Interface: %s\n", network.Interface)
	}
	fmt.Printf("Local IP:  %s\n", network.LocalIP)
	fmt.Printf("Network:   %s\n", color.CyanString(network.CIDR()))
	return nil
}
