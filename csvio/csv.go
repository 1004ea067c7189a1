// ABOUTME: Contact CSV export and import with French headers
// ABOUTME: Files are UTF-8 with a BOM, every exported field is quoted
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
)

const bom = "\ufeff"

// ContactHeaders is the export column order.
var ContactHeaders = []string{
	"Prénom", "Nom", "Email", "Société", "Téléphone", "Poste", "LinkedIn",
	"Site web", "Adresse", "Catégorie", "Statut", "Notes", "Tags",
}

func contactRecord(c models.Contact) []string {
	return []string{
		c.FirstName, c.LastName, c.Email, c.Company, c.Phone, c.Title, c.LinkedIn,
		c.Website, c.Address, string(c.Category), c.Status, c.Notes, strings.Join(c.Tags, ", "),
	}
}

// Writer emits CSV with every field quoted and embedded quotes doubled.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter writes the BOM immediately.
func NewWriter(w io.Writer) *Writer {
	cw := &Writer{w: bufio.NewWriter(w)}
	_, cw.err = cw.w.WriteString(bom)
	return cw
}

func (cw *Writer) Write(record []string) error {
	if cw.err != nil {
		return cw.err
	}
	for i, field := range record {
		if i > 0 {
			cw.w.WriteByte(',')
		}
		cw.w.WriteByte('"')
		cw.w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		cw.w.WriteByte('"')
	}
	_, cw.err = cw.w.WriteString("\r\n")
	return cw.err
}

func (cw *Writer) Flush() error {
	if cw.err != nil {
		return cw.err
	}
	return cw.w.Flush()
}

// ExportContacts writes the header row and one row per contact.
func ExportContacts(w io.Writer, contacts []models.Contact) error {
	cw := NewWriter(w)
	if err := cw.Write(ContactHeaders); err != nil {
		return err
	}
	for _, c := range contacts {
		if err := cw.Write(contactRecord(c)); err != nil {
			return fmt.Errorf("failed to write contact %s: %w", c.ID, err)
		}
	}
	return cw.Flush()
}

var ErrNoHeader = errors.New("csv has no header row")

// RowError reports a line that could not be read.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// ParseContacts reads a CSV export (or any sheet with recognisable headers) into contacts.
// Headers go through the same alias table as stored rows, so French, snake_case and
// camelCase headers all work. Rows without a name, email or company are skipped.
func ParseContacts(r io.Reader) ([]models.Contact, []error, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	data = bytes.TrimPrefix(data, []byte(bom))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var contacts []models.Contact
	var rowErrs []error
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}

		row := make(map[string]interface{}, len(header))
		for i, h := range header {
			if i < len(record) {
				row[strings.TrimSpace(h)] = record[i]
			}
		}

		c := db.NormalizeContactRow(row)
		if c.FirstName == "" && c.LastName == "" && c.Email == "" && c.Company == "" {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, rowErrs, nil
}
