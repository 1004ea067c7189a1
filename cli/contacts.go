// ABOUTME: Contact CLI commands
// ABOUTME: Add, list, update, delete, import and export contacts, plus duplicate review and merge
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/leadgen/csvio"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/dedup"
	"github.com/harperreed/leadgen/models"
)

// AddContactCommand adds a new contact.
func AddContactCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contact add", flag.ExitOnError)
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	company := fs.String("company", "", "Company")
	title := fs.String("title", "", "Job title")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	linkedin := fs.String("linkedin", "", "LinkedIn URL")
	website := fs.String("website", "", "Website")
	address := fs.String("address", "", "Postal address")
	category := fs.String("category", "prospect", "prospect or member")
	status := fs.String("status", models.ContactStatusNew, "Status")
	notes := fs.String("notes", "", "Notes")
	tags := fs.String("tags", "", "Comma-separated tags")
	_ = fs.Parse(args)

	if *first == "" && *last == "" && *email == "" {
		return fmt.Errorf("one of --first, --last or --email is required")
	}

	contact := &models.Contact{
		FirstName: *first,
		LastName:  *last,
		Company:   *company,
		Title:     *title,
		Email:     *email,
		Phone:     *phone,
		LinkedIn:  *linkedin,
		Website:   *website,
		Address:   *address,
		Category:  models.ParseCategory(*category),
		Status:    *status,
		Notes:     *notes,
		Tags:      splitList(*tags),
	}

	ctx := context.Background()
	if contact.Email != "" {
		existing, err := app.Contacts.FindByEmail(ctx, contact.Email)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			app.printf("! %s is already used by %s (ID: %s)\n", contact.Email, existing[0].FullName(), existing[0].ID)
		}
	}

	if err := app.Contacts.Create(ctx, contact); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	app.printf("✓ Contact created: %s (ID: %s)\n", contact.FullName(), contact.ID)
	if contact.Company != "" {
		app.printf("  Company: %s\n", contact.Company)
	}
	return nil
}

// ListContactsCommand prints contacts as a table.
func ListContactsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contact list", flag.ExitOnError)
	category := fs.String("category", "", "prospect or member")
	status := fs.String("status", "", "Filter by status")
	query := fs.String("query", "", "Search name, email or company")
	tag := fs.String("tag", "", "Filter by tag")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	filter := db.ContactFilter{Status: *status, Query: *query, Tag: *tag, Limit: *limit}
	if *category != "" {
		filter.Category = models.ParseCategory(*category)
	}

	contacts, err := app.Contacts.List(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}
	if len(contacts) == 0 {
		app.printf("No contacts found\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tEMAIL\tCATEGORY\tSTATUS\tSCORE")
	for _, c := range contacts {
		score := "-"
		if c.Score != nil {
			score = fmt.Sprintf("%d", *c.Score)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.FullName(), c.Company, c.Email, c.Category, c.Status, score)
	}
	_ = w.Flush()
	app.printf("\n%d contact(s)\n", len(contacts))
	return nil
}

// UpdateContactCommand changes only the flags that were given.
func UpdateContactCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contact update", flag.ExitOnError)
	fs.String("first", "", "First name")
	fs.String("last", "", "Last name")
	fs.String("company", "", "Company")
	fs.String("title", "", "Job title")
	fs.String("email", "", "Email address")
	fs.String("phone", "", "Phone number")
	fs.String("linkedin", "", "LinkedIn URL")
	fs.String("website", "", "Website")
	fs.String("address", "", "Postal address")
	fs.String("category", "", "prospect or member")
	fs.String("status", "", "Status")
	fs.String("notes", "", "Notes")
	fs.String("tags", "", "Comma-separated tags")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: leadgen contact update <id> [flags]")
	}

	ctx := context.Background()
	contact, err := app.Contacts.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if contact == nil {
		return fmt.Errorf("contact not found: %s", fs.Arg(0))
	}

	changed := 0
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		changed++
		switch f.Name {
		case "first":
			contact.FirstName = v
		case "last":
			contact.LastName = v
		case "company":
			contact.Company = v
		case "title":
			contact.Title = v
		case "email":
			contact.Email = v
		case "phone":
			contact.Phone = v
		case "linkedin":
			contact.LinkedIn = v
		case "website":
			contact.Website = v
		case "address":
			contact.Address = v
		case "category":
			contact.Category = models.ParseCategory(v)
		case "status":
			contact.Status = v
		case "notes":
			contact.Notes = v
		case "tags":
			contact.Tags = splitList(v)
		}
	})
	if changed == 0 {
		return fmt.Errorf("nothing to update")
	}

	if err := app.Contacts.Update(ctx, contact); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	app.printf("✓ Contact updated: %s\n", contact.FullName())
	return nil
}

func DeleteContactCommand(app *App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: leadgen contact delete <id>")
	}
	if err := app.Contacts.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	app.printf("✓ Contact deleted: %s\n", args[0])
	return nil
}

// ImportContactsCommand reads a CSV or vCard file. The format follows the extension.
func ImportContactsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contact import", flag.ExitOnError)
	category := fs.String("category", "", "Force the category of every row")
	allowDup := fs.Bool("allow-duplicates", false, "Import rows whose email already exists")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: leadgen contact import <file.csv|file.vcf> [flags]")
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var opts []csvio.ImportOption
	if *category != "" {
		opts = append(opts, csvio.WithCategory(models.ParseCategory(*category)))
	}
	if *allowDup {
		opts = append(opts, csvio.AllowDuplicates())
	}
	importer := csvio.NewImporter(app.Contacts, app.Logger, opts...)

	ctx := context.Background()
	var report csvio.ImportReport
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vcf", ".vcard":
		report, err = importer.ImportVCards(ctx, f)
	default:
		report, err = importer.ImportCSV(ctx, f)
	}
	if err != nil {
		return fmt.Errorf("import failed after %d contact(s): %w", report.Created, err)
	}

	app.printf("✓ Imported %d contact(s), skipped %d already known\n", report.Created, report.Skipped)
	for _, e := range report.Errors {
		app.printf("  ! %s\n", e)
	}
	return nil
}

// ExportContactsCommand writes the Excel-friendly CSV to a file or stdout.
func ExportContactsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contact export", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default stdout)")
	category := fs.String("category", "", "prospect or member")
	_ = fs.Parse(args)

	filter := db.ContactFilter{}
	if *category != "" {
		filter.Category = models.ParseCategory(*category)
	}
	contacts, err := app.Contacts.List(context.Background(), filter)
	if err != nil {
		return err
	}

	return withOutput(app, *output, func(w io.Writer) error {
		return csvio.ExportContacts(w, contacts)
	})
}

// DuplicatesCommand lists contacts sharing an email.
func DuplicatesCommand(app *App, args []string) error {
	contacts, err := app.Contacts.List(context.Background(), db.ContactFilter{})
	if err != nil {
		return err
	}
	clusters := dedup.FindDuplicates(contacts)
	if len(clusters) == 0 {
		app.printf("✓ No duplicates\n")
		return nil
	}

	for _, cl := range clusters {
		app.printf("%s (%d)\n", cl.Email, len(cl.Contacts))
		for _, c := range cl.Contacts {
			app.printf("  %s  %s  %s\n", c.ID, c.FullName(), c.Company)
		}
	}
	return nil
}

// MergeContactsCommand folds the given contacts into --primary (the first ID by default).
func MergeContactsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contact merge", flag.ExitOnError)
	primary := fs.String("primary", "", "ID of the contact to keep")
	_ = fs.Parse(args)

	ids := fs.Args()
	if len(ids) < 2 {
		return fmt.Errorf("usage: leadgen contact merge [--primary id] <id> <id> [id...]")
	}

	ctx := context.Background()
	selected := make([]models.Contact, 0, len(ids))
	primaryIndex := 0
	for i, id := range ids {
		c, err := app.Contacts.Get(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("contact not found: %s", id)
		}
		if id == *primary {
			primaryIndex = i
		}
		selected = append(selected, *c)
	}
	if *primary != "" && selected[primaryIndex].ID != *primary {
		return fmt.Errorf("--primary %s is not among the merged contacts", *primary)
	}

	result, err := dedup.NewMerger(app.Contacts, app.Logger).Merge(ctx, selected, primaryIndex)
	var partial *dedup.PartialMergeError
	if errors.As(err, &partial) {
		app.printf("! %s updated, but these duplicates are still present: %s\n",
			partial.PrimaryID, strings.Join(partial.PendingIDs, ", "))
		return err
	}
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	app.printf("✓ Merged %d contact(s) into %s (ID: %s)\n", len(result.DeletedIDs), result.Primary.FullName(), result.Primary.ID)
	return nil
}

// SimilarContactsCommand prints near-identical names with different emails.
func SimilarContactsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contact similar", flag.ExitOnError)
	threshold := fs.Float64("threshold", dedup.DefaultNameThreshold, "Maximum edit distance ratio")
	_ = fs.Parse(args)

	contacts, err := app.Contacts.List(context.Background(), db.ContactFilter{})
	if err != nil {
		return err
	}
	suggestions := dedup.SimilarNames(contacts, *threshold)
	if len(suggestions) == 0 {
		app.printf("No similar names\n")
		return nil
	}
	for _, s := range suggestions {
		app.printf("%.0f%%  %s <%s>  ~  %s <%s>\n",
			s.Similarity*100, s.A.FullName(), s.A.Email, s.B.FullName(), s.B.Email)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// withOutput runs fn against path, or against app.Out when path is empty.
func withOutput(app *App, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(app.Out)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	app.printf("✓ Wrote %s\n", path)
	return nil
}
