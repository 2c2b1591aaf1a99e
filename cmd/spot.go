package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/internal/pricing"
)

var spotJSON bool

var spotCmd = &cobra.Command{
	Use:   "spot",
	Short: "Show today's spot prices and per-gram melt values",
	RunE: func(cmd *cobra.Command, args []string) error {
		spots := initSpotCache()
		sp := spots.Prices(cmd.Context())
		table := pricing.Table(sp)

		if spotJSON {
			return json.NewEncoder(os.Stdout).Encode(map[string]any{
				"date":     sp.Date,
				"gold":     sp.Gold,
				"silver":   sp.Silver,
				"per_gram": table,
			})
		}

		fmt.Printf("Spot prices for %s (USD/oz)\n", sp.Date)
		fmt.Printf("  Gold:   %s\n", model.FormatUSD(sp.Gold))
		fmt.Printf("  Silver: %s\n", model.FormatUSD(sp.Silver))
		fmt.Println("Melt values (USD/gram)")
		for _, tier := range []pricing.Tier{
			pricing.Gold10K, pricing.Gold14K, pricing.Gold18K, pricing.Gold24K,
			pricing.SterlingSilver, pricing.FineSilver,
		} {
			fmt.Printf("  %-16s %s\n", tier, model.FormatUSD(table[tier]))
		}
		return nil
	},
}

func init() {
	spotCmd.Flags().BoolVar(&spotJSON, "json", false, "print JSON")
	rootCmd.AddCommand(spotCmd)
}
