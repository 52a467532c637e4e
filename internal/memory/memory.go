// Package memory is the ephemeral Store: the default backend for local use
// and the fixture for tests. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finapp/internal/core"
	"finapp/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	accounts     map[string]core.Account
	cards        map[string]core.Card
	categories   map[string]core.Category
	transactions map[string]core.Transaction
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:     make(map[string]core.Account),
		cards:        make(map[string]core.Card),
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
	}
}

// NewWith seeds the store, for tests and demo data.
func NewWith(data ledger.Data) *Store {
	s := New()
	for _, a := range data.Accounts {
		s.accounts[a.ID] = a
	}
	for _, c := range data.Cards {
		s.cards[c.ID] = c
	}
	for _, c := range data.Categories {
		s.categories[c.ID] = c
	}
	for _, t := range data.Transactions {
		s.transactions[t.ID] = t
	}
	return s
}

func (s *Store) LoadAll(_ context.Context) (ledger.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data ledger.Data
	for _, a := range s.accounts {
		data.Accounts = append(data.Accounts, a)
	}
	for _, c := range s.cards {
		data.Cards = append(data.Cards, c)
	}
	for _, c := range s.categories {
		data.Categories = append(data.Categories, c)
	}
	for _, t := range s.transactions {
		data.Transactions = append(data.Transactions, t)
	}
	return data, nil
}

func (s *Store) InsertAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return fmt.Errorf("account %s: %w", a.ID, core.ErrNotFound)
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	for txID, t := range s.transactions {
		if t.AccountID == id {
			t.AccountID = ""
			s.transactions[txID] = t
		}
	}
	for catID, c := range s.categories {
		if c.DefaultAccountID == id {
			c.DefaultAccountID = ""
			s.categories[catID] = c
		}
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) InsertCard(_ context.Context, c core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[c.ID] = c
	return nil
}

func (s *Store) UpdateCard(_ context.Context, c core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.ID]; !ok {
		return fmt.Errorf("card %s: %w", c.ID, core.ErrNotFound)
	}
	s.cards[c.ID] = c
	return nil
}

func (s *Store) DeleteCard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	for txID, t := range s.transactions {
		if t.CardID == id {
			t.CardID = ""
			s.transactions[txID] = t
		}
	}
	for catID, c := range s.categories {
		if c.DefaultCardID == id {
			c.DefaultCardID = ""
			s.categories[catID] = c
		}
	}
	delete(s.cards, id)
	return nil
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return fmt.Errorf("category %s: %w", c.ID, core.ErrNotFound)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	for txID, t := range s.transactions {
		if t.CategoryID == id {
			t.CategoryID = ""
			s.transactions[txID] = t
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}
