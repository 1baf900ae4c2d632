package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/cardfolio/cardscan-cli/internal/model"
	"github.com/cardfolio/cardscan-cli/internal/store"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Manage saved contacts",
}

var (
	listTag         string
	listCategory    string
	listIndustry    string
	listCountry     string
	listCity        string
	listCompetitors bool
	listLimit       int
	listJSON        bool
)

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		contacts, err := st.ListContacts(ctx, store.ContactFilter{
			Tag:             listTag,
			Category:        model.ContactCategory(listCategory),
			Industry:        listIndustry,
			Country:         listCountry,
			City:            listCity,
			CompetitorsOnly: listCompetitors,
			Limit:           listLimit,
		})
		if err != nil {
			return err
		}

		if listJSON {
			return printJSON(cmd, contacts)
		}
		printContactTable(cmd, contacts)
		return nil
	},
}

var showJSON bool

var contactsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one contact in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		contact, err := st.GetContact(ctx, args[0])
		if err != nil {
			return err
		}
		if showJSON {
			return printJSON(cmd, contact)
		}
		printContact(cmd, contact)
		return nil
	},
}

var searchLimit int

var contactsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search contacts by name, company, email, phone, industry, or tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		contacts, err := st.SearchContacts(ctx, args[0], searchLimit)
		if err != nil {
			return err
		}
		printContactTable(cmd, contacts)
		return nil
	},
}

var contactsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteContact(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("contact deleted", zap.String("id", args[0]))
		return nil
	},
}

var contactsTagCmd = &cobra.Command{
	Use:   "tag <add|remove> <id> <tag>",
	Short: "Add or remove a tag on a contact",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var contact *model.Contact
		switch args[0] {
		case "add":
			contact, err = store.AddTag(ctx, st, args[1], args[2])
		case "remove":
			contact, err = store.RemoveTag(ctx, st, args[1], args[2])
		default:
			return eris.Errorf("unknown tag action %q, want add or remove", args[0])
		}
		if err != nil {
			return err
		}
		cmd.Printf("%s: %s\n", contact.Name, strings.Join(contact.Tags, ", "))
		return nil
	},
}

var exportOut string

var contactsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all contacts to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		contacts, err := st.ListContacts(ctx, store.ContactFilter{Limit: 10000})
		if err != nil {
			return err
		}

		if err := writeContactsXLSX(contacts, exportOut); err != nil {
			return err
		}
		zap.L().Info("contacts exported",
			zap.Int("count", len(contacts)),
			zap.String("file", exportOut),
		)
		return nil
	},
}

func init() {
	contactsListCmd.Flags().StringVar(&listTag, "tag", "", "filter by tag")
	contactsListCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	contactsListCmd.Flags().StringVar(&listIndustry, "industry", "", "filter by industry")
	contactsListCmd.Flags().StringVar(&listCountry, "country", "", "filter by country")
	contactsListCmd.Flags().StringVar(&listCity, "city", "", "filter by city")
	contactsListCmd.Flags().BoolVar(&listCompetitors, "competitors", false, "only competitors")
	contactsListCmd.Flags().IntVar(&listLimit, "limit", 50, "max contacts to list")
	contactsListCmd.Flags().BoolVar(&listJSON, "json", false, "emit JSON")
	contactsShowCmd.Flags().BoolVar(&showJSON, "json", false, "emit JSON")
	contactsSearchCmd.Flags().IntVar(&searchLimit, "limit", 50, "max results")
	contactsExportCmd.Flags().StringVar(&exportOut, "out", "contacts.xlsx", "output xlsx path")

	contactsCmd.AddCommand(contactsListCmd, contactsShowCmd, contactsSearchCmd,
		contactsDeleteCmd, contactsTagCmd, contactsExportCmd)
	rootCmd.AddCommand(contactsCmd)
}

func printContactTable(cmd *cobra.Command, contacts []model.Contact) {
	if len(contacts) == 0 {
		cmd.Println("no contacts")
		return
	}
	for i := range contacts {
		c := &contacts[i]
		marker := " "
		if c.IsCompetitor {
			marker = "!"
		}
		cmd.Printf("%s %-36s  %-24s  %-24s  %s (p%d)\n",
			marker, c.ID, c.Name, c.Company, c.Category, c.PriorityScore)
	}
}

// exportHeader defines the xlsx column order.
var exportHeader = []string{
	"ID", "Name", "Title", "Company", "Email", "Phone", "Website",
	"Industry", "Company Size", "Category", "Priority", "Competitor",
	"Tags", "City", "Country", "LinkedIn", "Scan Quality", "Scanned At",
}

func writeContactsXLSX(contacts []model.Contact, path string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Contacts")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range exportHeader {
		header.AddCell().Value = col
	}

	for i := range contacts {
		c := &contacts[i]
		city, country := "", ""
		if c.Location != nil {
			city, country = c.Location.City, c.Location.Country
		}

		row := sheet.AddRow()
		for _, value := range []string{
			c.ID, c.Name, c.Title, c.Company, c.Email, c.Phone, c.Website,
			c.Industry, string(c.CompanySize), string(c.Category),
		} {
			row.AddCell().Value = value
		}
		row.AddCell().SetInt(c.PriorityScore)
		row.AddCell().SetBool(c.IsCompetitor)
		row.AddCell().Value = strings.Join(c.Tags, ", ")
		row.AddCell().Value = city
		row.AddCell().Value = country
		row.AddCell().Value = c.LinkedInURL
		row.AddCell().Value = string(c.ScanQuality)
		row.AddCell().Value = c.ScanTimestamp.Format("2006-01-02 15:04")
	}

	return eris.Wrapf(file.Save(path), "export: save %s", path)
}
