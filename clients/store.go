package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-token-engine/oauth2"
)

// Store resolves client ids to their configuration. It performs no caching; wrap it
// when caching across requests is wanted.
type Store struct {
	source Source
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// LoadClient returns the client registered under clientID, or an error wrapping
// oauth2.ErrNoSuchClient.
func (s *Store) LoadClient(ctx context.Context, clientID string) (*Client, error) {
	if clientID == "" {
		return nil, fmt.Errorf("empty client id: %w", oauth2.ErrNoSuchClient)
	}
	row, err := s.source.Select(ctx, clientID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("client %s: %w", clientID, oauth2.ErrNoSuchClient)
	}
	if err != nil {
		return nil, fmt.Errorf("[Store.LoadClient] select %s: %w", clientID, err)
	}
	return row.Client(), nil
}

// Exists reports whether a client is registered, using the source's find query.
func (s *Store) Exists(ctx context.Context, clientID string) (bool, error) {
	_, err := s.source.Find(ctx, clientID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("[Store.Exists] find %s: %w", clientID, err)
	}
	return true, nil
}
