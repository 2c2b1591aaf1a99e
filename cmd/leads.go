package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/internal/store"
)

var (
	leadsLimit int
	leadsSince string
	leadsOut   string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and export stored leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored leads, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		filter, err := leadsFilter()
		if err != nil {
			return err
		}
		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return err
		}

		if len(leads) == 0 {
			fmt.Println("no leads")
			return nil
		}
		for _, l := range leads {
			p := l.Payload
			name := strings.TrimSpace(p.FirstName + " " + p.LastName)
			fmt.Printf("%s  %-24s %-30s %-20s %s\n",
				l.CreatedAt.Format("2006-01-02 15:04"),
				name, p.Email, p.Item, p.OfferRange,
			)
		}
		return nil
	},
}

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		filter, err := leadsFilter()
		if err != nil {
			return err
		}
		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return err
		}

		if err := writeLeadsXLSX(leadsOut, leads); err != nil {
			return err
		}
		zap.L().Info("exported leads", zap.Int("count", len(leads)), zap.String("file", leadsOut))
		return nil
	},
}

func leadsFilter() (store.LeadFilter, error) {
	filter := store.LeadFilter{Limit: leadsLimit}
	if leadsSince != "" {
		since, err := time.Parse("2006-01-02", leadsSince)
		if err != nil {
			return store.LeadFilter{}, eris.Wrapf(err, "invalid --since %q, expected YYYY-MM-DD", leadsSince)
		}
		filter.Since = since
	}
	return filter, nil
}

func writeLeadsXLSX(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"Created", "First Name", "Last Name", "Email", "Phone",
		"Item", "Item Type", "Offer Range", "Confidence",
		"Shipping", "Source", "Notes",
	} {
		header.AddCell().SetString(h)
	}

	for _, l := range leads {
		p := l.Payload
		row := sheet.AddRow()
		row.AddCell().SetString(l.CreatedAt.Format(time.RFC3339))
		row.AddCell().SetString(p.FirstName)
		row.AddCell().SetString(p.LastName)
		row.AddCell().SetString(p.Email)
		row.AddCell().SetString(p.Phone)
		row.AddCell().SetString(p.Item)
		row.AddCell().SetString(p.ItemType)
		row.AddCell().SetString(p.OfferRange)
		row.AddCell().SetString(p.Confidence)
		row.AddCell().SetString(p.ShippingMethod)
		row.AddCell().SetString(p.Source)
		row.AddCell().SetString(p.Notes)
	}

	return eris.Wrapf(f.Save(path), "save %s", path)
}

func init() {
	leadsCmd.PersistentFlags().IntVar(&leadsLimit, "limit", 0, "maximum leads to return (0 = all)")
	leadsCmd.PersistentFlags().StringVar(&leadsSince, "since", "", "only leads created on or after this date (YYYY-MM-DD)")
	leadsExportCmd.Flags().StringVar(&leadsOut, "out", "leads.xlsx", "output workbook path")
	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsExportCmd)
	rootCmd.AddCommand(leadsCmd)
}
