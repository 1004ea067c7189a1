// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add_contact, find_contacts, update_contact, and delete_contact tools
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	contacts *db.ContactRepository
}

func NewContactHandlers(contacts *db.ContactRepository) *ContactHandlers {
	return &ContactHandlers{contacts: contacts}
}

type AddContactInput struct {
	FirstName string   `json:"first_name,omitempty" jsonschema:"First name"`
	LastName  string   `json:"last_name,omitempty" jsonschema:"Last name"`
	Email     string   `json:"email,omitempty" jsonschema:"Email address"`
	Company   string   `json:"company,omitempty" jsonschema:"Company name"`
	Title     string   `json:"title,omitempty" jsonschema:"Job title"`
	Phone     string   `json:"phone,omitempty" jsonschema:"Phone number"`
	Category  string   `json:"category,omitempty" jsonschema:"prospect (default) or member"`
	Notes     string   `json:"notes,omitempty" jsonschema:"Free-form notes"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Tags"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, _ *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.FirstName == "" && input.LastName == "" && input.Email == "" {
		return nil, ContactOutput{}, fmt.Errorf("a name or an email is required")
	}

	contact := &models.Contact{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Company:   input.Company,
		Title:     input.Title,
		Phone:     input.Phone,
		Category:  models.ParseCategory(input.Category),
		Status:    models.ContactStatusNew,
		Notes:     input.Notes,
		Tags:      input.Tags,
	}
	if err := h.contacts.Create(ctx, contact); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(*contact), nil
}

type FindContactsInput struct {
	Query    string `json:"query,omitempty" jsonschema:"Search text matched against name, email and company"`
	Category string `json:"category,omitempty" jsonschema:"prospect or member"`
	Status   string `json:"status,omitempty" jsonschema:"Contact status, e.g. New or Interested"`
	Tag      string `json:"tag,omitempty" jsonschema:"Only contacts carrying this tag"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type ContactListOutput struct {
	Contacts []ContactOutput `json:"contacts"`
	Count    int             `json:"count"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, ContactListOutput, error) {
	filter := db.ContactFilter{
		Query:  input.Query,
		Status: input.Status,
		Tag:    input.Tag,
		Limit:  input.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if input.Category != "" {
		filter.Category = models.ParseCategory(input.Category)
	}

	contacts, err := h.contacts.List(ctx, filter)
	if err != nil {
		return nil, ContactListOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}
	out := contactsToOutput(contacts)
	return nil, ContactListOutput{Contacts: out, Count: len(out)}, nil
}

type UpdateContactInput struct {
	ID        string   `json:"id" jsonschema:"Contact ID (required)"`
	FirstName *string  `json:"first_name,omitempty"`
	LastName  *string  `json:"last_name,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Company   *string  `json:"company,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Category  *string  `json:"category,omitempty"`
	Status    *string  `json:"status,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Replaces all tags when set"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	contact, err := h.getContact(ctx, input.ID)
	if err != nil {
		return nil, ContactOutput{}, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&contact.FirstName, input.FirstName)
	set(&contact.LastName, input.LastName)
	set(&contact.Email, input.Email)
	set(&contact.Company, input.Company)
	set(&contact.Title, input.Title)
	set(&contact.Phone, input.Phone)
	set(&contact.Status, input.Status)
	set(&contact.Notes, input.Notes)
	if input.Category != nil {
		contact.Category = models.ParseCategory(*input.Category)
	}
	if input.Tags != nil {
		contact.Tags = input.Tags
	}

	if err := h.contacts.Update(ctx, contact); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return nil, contactToOutput(*contact), nil
}

type DeleteContactInput struct {
	ID string `json:"id" jsonschema:"Contact ID (required)"`
}

type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, _ *mcp.CallToolRequest, input DeleteContactInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}
	if err := h.contacts.Delete(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: true}, nil
}

func (h *ContactHandlers) getContact(ctx context.Context, id string) (*models.Contact, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	contact, err := h.contacts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("contact not found: %s", id)
	}
	return contact, nil
}
