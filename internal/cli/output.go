package cli

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/spf13/cobra"
)

const tabPadding = 2

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatNumber prints at most two decimals without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func formatAmount(v float64, unit string) string {
	return formatNumber(v) + " " + unit
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
