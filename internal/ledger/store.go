package ledger

import (
	"context"

	"github.com/google/uuid"

	"finapp/internal/core"
)

// Data is everything a Store holds, loaded in one shot at startup.
type Data struct {
	Accounts     []core.Account
	Cards        []core.Card
	Categories   []core.Category
	Transactions []core.Transaction
}

// Store is the persistence collaborator. The ledger owns validation,
// reference checks and balance enforcement; the store only persists.
//
// DeleteAccount, DeleteCard and DeleteCategory must clear the matching
// reference on every dependent transaction (and category default) and remove
// the entity as one unit; the SQLite store wraps both in a transaction.
type Store interface {
	LoadAll(ctx context.Context) (Data, error)

	InsertAccount(ctx context.Context, a core.Account) error
	UpdateAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, id string) error

	InsertCard(ctx context.Context, c core.Card) error
	UpdateCard(ctx context.Context, c core.Card) error
	DeleteCard(ctx context.Context, id string) error

	InsertCategory(ctx context.Context, c core.Category) error
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error

	InsertTransaction(ctx context.Context, t core.Transaction) error
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// IDGenerator is the identity collaborator: ids must be globally unique and
// stable for the record's lifetime.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the default IDGenerator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Events receives a notification after every successful mutation. Publishing
// is best-effort: a failing publisher never fails the mutation.
type Events interface {
	Publish(ctx context.Context, entity, action, id string) error
}

// Mutation event vocabulary.
const (
	EntityAccount     = "account"
	EntityCard        = "card"
	EntityCategory    = "category"
	EntityTransaction = "transaction"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)
