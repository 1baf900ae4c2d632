package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cardfolio/cardscan-cli/internal/analytics"
	"github.com/cardfolio/cardscan-cli/internal/store"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show network analytics for the contact collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		contacts, err := st.ListContacts(ctx, store.ContactFilter{Limit: 10000})
		if err != nil {
			return err
		}

		now := time.Now()
		report := struct {
			Metrics    analytics.NetworkMetrics    `json:"metrics"`
			Industries []analytics.IndustryData    `json:"industries"`
			Sizes      []analytics.CompanySizeData `json:"company_sizes"`
			Companies  []analytics.TopCompany      `json:"top_companies"`
			Trends     []analytics.WeeklyTrend     `json:"weekly_trends"`
			Geography  []analytics.GeographicData  `json:"geography"`
			Quality    analytics.QualityReport     `json:"scan_quality"`
		}{
			Metrics:    analytics.GetNetworkMetrics(contacts, now),
			Industries: analytics.GetIndustryBreakdown(contacts),
			Sizes:      analytics.GetCompanySizeBreakdown(contacts),
			Companies:  analytics.GetTopCompanies(contacts, 10),
			Trends:     analytics.GetWeeklyTrends(contacts, now),
			Geography:  analytics.GetGeographicDistribution(contacts),
			Quality:    analytics.GetQualityReport(contacts),
		}

		if statsJSON {
			return printJSON(cmd, report)
		}

		m := report.Metrics
		cmd.Printf("Contacts: %d total, %d this week, %d this month (velocity %d/week)\n",
			m.TotalContacts, m.ThisWeek, m.ThisMonth, m.NetworkingVelocity)
		cmd.Printf("Network:  %d industries, %d companies, %d competitors, %d high priority\n",
			m.UniqueIndustries, m.UniqueCompanies, m.CompetitorCount, m.HighPriorityCount)
		cmd.Printf("Value:    score %d, average priority %d\n\n",
			m.NetworkValueScore, m.AveragePriorityScore)

		if len(report.Industries) > 0 {
			cmd.Println("Industries:")
			for _, ind := range report.Industries {
				cmd.Printf("  %-20s %4d  (%d%%)\n", ind.Name, ind.Count, ind.Percentage)
			}
		}
		if len(report.Sizes) > 0 {
			cmd.Println("Company sizes:")
			for _, size := range report.Sizes {
				cmd.Printf("  %-20s %4d\n", size.Label, size.Count)
			}
		}
		if len(report.Companies) > 0 {
			cmd.Println("Top companies:")
			for _, company := range report.Companies {
				cmd.Printf("  %-30s %4d\n", company.Name, company.Count)
			}
		}
		if len(report.Geography) > 0 {
			cmd.Println("Locations:")
			for _, geo := range report.Geography {
				label := geo.Country
				if geo.City != "" {
					label = geo.City + ", " + geo.Country
				}
				cmd.Printf("  %-30s %4d\n", label, geo.Count)
			}
		}

		q := report.Quality
		cmd.Printf("Scan quality: %d excellent, %d good, %d poor, %d unknown\n",
			q.Excellent, q.Good, q.Poor, q.Unknown)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(statsCmd)
}
