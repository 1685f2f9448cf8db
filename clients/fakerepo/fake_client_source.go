package fakeclientrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-token-engine/clients"
)

var _ clients.Source = (*FakeClientSource)(nil)

// FakeClientSource keeps client rows in memory and counts lookups per query.
type FakeClientSource struct {
	rows    map[string]clients.Row
	selects int
	finds   int
	lock    sync.RWMutex
}

func NewFakeClientSource() *FakeClientSource {
	return &FakeClientSource{
		rows: make(map[string]clients.Row),
	}
}

// Put stores or replaces a raw row.
func (r *FakeClientSource) Put(row clients.Row) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.rows[row.ClientID] = row
}

// Register stores a client through its row form.
func (r *FakeClientSource) Register(client *clients.Client) {
	r.Put(*clients.RowFromClient(client))
}

func (r *FakeClientSource) Delete(clientID string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.rows, clientID)
}

func (r *FakeClientSource) Select(_ context.Context, clientID string) (*clients.Row, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.selects++
	row, ok := r.rows[clientID]
	if !ok {
		return nil, clients.ErrNotFound
	}
	return &row, nil
}

func (r *FakeClientSource) Find(_ context.Context, clientID string) (*clients.Row, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.finds++
	row, ok := r.rows[clientID]
	if !ok {
		return nil, clients.ErrNotFound
	}
	row.ClientSecret = ""
	return &row, nil
}

// Calls returns how many select and find lookups were served.
func (r *FakeClientSource) Calls() (selects, finds int) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.selects, r.finds
}
