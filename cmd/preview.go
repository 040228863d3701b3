package cmd

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"time"

	fcolor "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smazurov/weatherhat/internal/colors"
)

// CreatePreviewCmd creates the preview command, which prints the strip frames
// for a second, a temperature and a pressure as 24-bit colored blocks.
func CreatePreviewCmd() *cobra.Command {
	var second int
	var celsius, hPa, divisor float64

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print LED strip frames in the terminal",
		Long: `Renders the clock, temperature and pressure gauges the way the Rainbow HAT ` +
			`strip would show them. No hardware is touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("second") {
				second = time.Now().Second()
			}
			out := cmd.OutOrStdout()
			printFrame(out, fmt.Sprintf("time %02ds", second), colors.TimeColors(second))
			printFrame(out, fmt.Sprintf("temp %.1fC", celsius), colors.TemperatureColorsWithDivisor(celsius, divisor))
			printFrame(out, fmt.Sprintf("pres %.1fhPa", hPa), colors.PressureColors(hPa))
			return nil
		},
	}

	cmd.Flags().IntVar(&second, "second", 0, "Second of the minute (default: now)")
	cmd.Flags().Float64Var(&celsius, "temperature", 21, "Temperature in °C")
	cmd.Flags().Float64Var(&hPa, "pressure", 1013.25, "Pressure in hPa")
	cmd.Flags().Float64Var(&divisor, "divisor", colors.DefaultTemperatureDivisor, "°C per lit pixel")

	return cmd
}

func printFrame(w io.Writer, label string, frame colors.Frame) {
	var blocks, hex strings.Builder
	for i, c := range frame {
		blocks.WriteString(block(c))
		if i > 0 {
			hex.WriteByte(' ')
		}
		hex.WriteString(colors.Hex(c))
	}
	fmt.Fprintf(w, "%-16s %s  %s\n", label, blocks.String(), hex.String())
}

func block(c color.RGBA) string {
	if c == colors.Off {
		return fcolor.New(fcolor.Faint).Sprint(" · ")
	}
	return fcolor.BgRGB(int(c.R), int(c.G), int(c.B)).Sprint("   ")
}
