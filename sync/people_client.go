// ABOUTME: Google People API wrapper for paging through the user's connections
// ABOUTME: Exposes one page at a time so the importer can be tested without the network
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

const personFields = "names,emailAddresses,phoneNumbers,organizations,biographies,urls,addresses"

type ConnectionLister interface {
	ListConnections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error)
}

type googlePeople struct {
	service *people.Service
}

func NewPeopleClient(ctx context.Context, config *oauth2.Config, token *oauth2.Token) (ConnectionLister, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	service, err := people.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return &googlePeople{service: service}, nil
}

func (g *googlePeople) ListConnections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	call := g.service.People.Connections.List("people/me").
		PersonFields(personFields).
		PageSize(1000)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Context(ctx).Do()
}
