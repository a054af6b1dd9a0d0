package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lansweep/lansweep/internal/errors"
	"github.com/lansweep/lansweep/internal/export"
)

var convertFormat string

// convertCmd represents the convert command.
var convertCmd = &cobra.Command{
	Use:   "convert <result.json> [output]",
	Short: "Convert an exported JSON result to another format",
	Long: `Convert a previously exported JSON scan result to CSV or JSON.

When no output file is given the converted result is written to stdout.`,
	Example: `  lansweep convert scan.json --format csv
  lansweep convert scan.json devices.csv --format csv`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "csv", "Output format: csv or json")
}

func runConvert(cmd *cobra.Command, args []string) error {
	doc, err := export.ReadJSONFile(args[0])
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return export.Write(os.Stdout, doc, convertFormat)
	}

	outPath := args[1]
	f, err := os.Create(outPath)
	if err != nil {
		return errors.WrapExportError(errors.CodeExportIO,
			"Failed to create output file", outPath, err)
	}
	defer f.Close()

	if err := export.Write(f, doc, convertFormat); err != nil {
		return err
	}

	fmt.Printf("Converted %d devices to %s\n",
		doc.Metadata.DeviceCount, color.GreenString(outPath))
	return nil
}
