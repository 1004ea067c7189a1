// ABOUTME: Duplicate detection and merge MCP tool handlers
// ABOUTME: Implements find_duplicates, merge_contacts, and similar_contacts tools
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/dedup"
	"github.com/harperreed/leadgen/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DuplicateHandlers struct {
	contacts *db.ContactRepository
	merger   *dedup.Merger
}

func NewDuplicateHandlers(contacts *db.ContactRepository, merger *dedup.Merger) *DuplicateHandlers {
	return &DuplicateHandlers{contacts: contacts, merger: merger}
}

type FindDuplicatesInput struct{}

type ClusterOutput struct {
	Email    string          `json:"email"`
	Contacts []ContactOutput `json:"contacts"`
}

type FindDuplicatesOutput struct {
	Clusters []ClusterOutput `json:"clusters"`
	Count    int             `json:"count"`
}

func (h *DuplicateHandlers) FindDuplicates(ctx context.Context, _ *mcp.CallToolRequest, _ FindDuplicatesInput) (*mcp.CallToolResult, FindDuplicatesOutput, error) {
	contacts, err := h.contacts.List(ctx, db.ContactFilter{})
	if err != nil {
		return nil, FindDuplicatesOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	clusters := dedup.FindDuplicates(contacts)
	out := FindDuplicatesOutput{Clusters: make([]ClusterOutput, 0, len(clusters)), Count: len(clusters)}
	for _, c := range clusters {
		out.Clusters = append(out.Clusters, ClusterOutput{Email: c.Email, Contacts: contactsToOutput(c.Contacts)})
	}
	return nil, out, nil
}

type MergeContactsInput struct {
	ContactIDs []string `json:"contact_ids" jsonschema:"IDs of the contacts to merge, at least two, in priority order"`
	PrimaryID  string   `json:"primary_id" jsonschema:"ID of the contact that survives; its email is kept"`
}

type MergeContactsOutput struct {
	Primary    ContactOutput `json:"primary"`
	DeletedIDs []string      `json:"deleted_ids"`
	Partial    bool          `json:"partial"`
	PendingIDs []string      `json:"pending_ids,omitempty"`
}

func (h *DuplicateHandlers) MergeContacts(ctx context.Context, _ *mcp.CallToolRequest, input MergeContactsInput) (*mcp.CallToolResult, MergeContactsOutput, error) {
	if len(input.ContactIDs) < 2 {
		return nil, MergeContactsOutput{}, dedup.ErrNotEnoughContacts
	}

	primaryIndex := -1
	selected := make([]models.Contact, 0, len(input.ContactIDs))
	for i, id := range input.ContactIDs {
		c, err := h.contacts.Get(ctx, id)
		if err != nil {
			return nil, MergeContactsOutput{}, fmt.Errorf("failed to get contact %s: %w", id, err)
		}
		if c == nil {
			return nil, MergeContactsOutput{}, fmt.Errorf("contact not found: %s", id)
		}
		if id == input.PrimaryID {
			primaryIndex = i
		}
		selected = append(selected, *c)
	}

	result, err := h.merger.Merge(ctx, selected, primaryIndex)
	var partial *dedup.PartialMergeError
	if errors.As(err, &partial) {
		// the primary is already saved; report what is left so the operator can retry the deletes
		return nil, MergeContactsOutput{
			Primary:    contactToOutput(result.Primary),
			DeletedIDs: []string{},
			Partial:    true,
			PendingIDs: partial.PendingIDs,
		}, nil
	}
	if err != nil {
		return nil, MergeContactsOutput{}, err
	}

	return nil, MergeContactsOutput{
		Primary:    contactToOutput(result.Primary),
		DeletedIDs: result.DeletedIDs,
	}, nil
}

type SimilarContactsInput struct {
	Threshold float64 `json:"threshold,omitempty" jsonschema:"Maximum normalized edit distance between names (default 0.2)"`
}

type SimilarPairOutput struct {
	A          ContactOutput `json:"a"`
	B          ContactOutput `json:"b"`
	Similarity float64       `json:"similarity"`
}

type SimilarContactsOutput struct {
	Pairs []SimilarPairOutput `json:"pairs"`
	Count int                 `json:"count"`
}

func (h *DuplicateHandlers) SimilarContacts(ctx context.Context, _ *mcp.CallToolRequest, input SimilarContactsInput) (*mcp.CallToolResult, SimilarContactsOutput, error) {
	contacts, err := h.contacts.List(ctx, db.ContactFilter{})
	if err != nil {
		return nil, SimilarContactsOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	suggestions := dedup.SimilarNames(contacts, input.Threshold)
	out := SimilarContactsOutput{Pairs: make([]SimilarPairOutput, 0, len(suggestions)), Count: len(suggestions)}
	for _, s := range suggestions {
		out.Pairs = append(out.Pairs, SimilarPairOutput{
			A:          contactToOutput(s.A),
			B:          contactToOutput(s.B),
			Similarity: s.Similarity,
		})
	}
	return nil, out, nil
}
