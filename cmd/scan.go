package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cardfolio/cardscan-cli/internal/enrich"
	"github.com/cardfolio/cardscan-cli/internal/model"
)

var (
	scanUserIndustry string
	scanNoSave       bool
	scanJSON         bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Scan a business card image into an enriched contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initScanEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := enrich.ScanRequest{
			ImageURI:     args[0],
			UserIndustry: userIndustry(),
		}
		if !scanJSON {
			req.OnStatus = func(status string) {
				fmt.Fprintln(os.Stderr, status)
			}
		}

		outcome := env.Orchestrator.Process(ctx, req)
		contact := outcome.Contact

		if !scanNoSave {
			if err := env.Store.AddContact(ctx, &contact); err != nil {
				return eris.Wrap(err, "save contact")
			}
			zap.L().Info("contact saved",
				zap.String("id", contact.ID),
				zap.String("name", contact.Name),
				zap.Bool("fell_back", outcome.FellBack),
			)
		}

		if scanJSON {
			return printJSON(cmd, contact)
		}

		printContact(cmd, &contact)
		if defaulted := defaultedOps(outcome); len(defaulted) > 0 {
			cmd.Printf("\nDefaulted operations: %s\n", strings.Join(defaulted, ", "))
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanUserIndustry, "user-industry", "", "your industry, enables the competitor check")
	scanCmd.Flags().BoolVar(&scanNoSave, "no-save", false, "process without persisting the contact")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "emit the contact as JSON")
	rootCmd.AddCommand(scanCmd)
}

// userIndustry prefers the flag over the configured default.
func userIndustry() string {
	if scanUserIndustry != "" {
		return scanUserIndustry
	}
	return cfg.Pipeline.UserIndustry
}

func defaultedOps(outcome *enrich.ScanOutcome) []string {
	var names []string
	for _, op := range outcome.Ops {
		if op.Status == enrich.OpDefaulted {
			names = append(names, op.Name)
		}
	}
	return names
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	cmd.Println(string(data))
	return nil
}

func printContact(cmd *cobra.Command, c *model.Contact) {
	cmd.Printf("%s — %s at %s\n", c.Name, c.Title, c.Company)
	if c.Email != "" {
		cmd.Printf("  email:     %s\n", c.Email)
	}
	if c.Phone != "" {
		cmd.Printf("  phone:     %s\n", c.Phone)
	}
	cmd.Printf("  industry:  %s (%s)\n", c.Industry, c.CompanySize)
	cmd.Printf("  category:  %s  priority: %d", c.Category, c.PriorityScore)
	if c.IsCompetitor {
		cmd.Printf("  [competitor]")
	}
	cmd.Println()
	if len(c.Tags) > 0 {
		cmd.Printf("  tags:      %s\n", strings.Join(c.Tags, ", "))
	}
	if c.Location != nil && (c.Location.City != "" || c.Location.Country != "") {
		cmd.Printf("  location:  %s %s %s\n", c.Location.City, c.Location.State, c.Location.Country)
	}
	if c.LinkedInURL != "" {
		cmd.Printf("  profile:   %s\n", c.LinkedInURL)
	}
	cmd.Printf("  scan:      %s quality, confidence %d\n", c.ScanQuality, c.OCRConfidence)
	if c.PersonSummary != "" {
		cmd.Printf("\n%s\n", c.PersonSummary)
	}
	for i, starter := range c.ConversationStarters {
		if i == 0 {
			cmd.Println("\nConversation starters:")
		}
		cmd.Printf("  %d. %s\n", i+1, starter)
	}
}
