package store

import (
	"context"
	"encoding/json"
	"fmt"

	"expensetab/internal/core"
	"expensetab/internal/storage"
)

// StateKey is the namespace key the snapshot is stored under.
const StateKey = "expense-tracker-storage"

// snapshot is the persisted envelope around State.
type snapshot struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// EncodeState renders s in the persisted snapshot format.
func EncodeState(s State) ([]byte, error) {
	return json.Marshal(snapshot{State: s})
}

// DecodeState parses a persisted snapshot. Missing collections decode as
// empty, not nil.
func DecodeState(data []byte) (State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	s := snap.State
	if s.Expenses == nil {
		s.Expenses = []core.Expense{}
	}
	if s.Categories == nil {
		s.Categories = []core.Category{}
	}
	if s.Budgets == nil {
		s.Budgets = []core.Budget{}
	}
	return s, nil
}

// BlobPersister stores the snapshot in a storage.BlobStore.
type BlobPersister struct {
	blobs storage.BlobStore
	key   string
}

func NewBlobPersister(blobs storage.BlobStore) *BlobPersister {
	return &BlobPersister{blobs: blobs, key: StateKey}
}

func (p *BlobPersister) Load(ctx context.Context) (State, bool, error) {
	data, found, err := p.blobs.Get(ctx, p.key)
	if err != nil || !found {
		return State{}, false, err
	}
	s, err := DecodeState(data)
	if err != nil {
		return State{}, false, err
	}
	return s, true, nil
}

func (p *BlobPersister) Save(ctx context.Context, s State) error {
	data, err := EncodeState(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return p.blobs.Put(ctx, p.key, data)
}
