package equipment

import "context"

// Store is the persistence port for equipment and its movement log.
// Transaction runs fn against a Store bound to a single database
// transaction; any error returned by fn rolls every write back.
type Store interface {
	Get(ctx context.Context, tag string) (*Equipment, error)
	SerialExists(ctx context.Context, serial, exceptTag string) (bool, error)
	Create(ctx context.Context, e *Equipment) error
	Update(ctx context.Context, e *Equipment) error
	Delete(ctx context.Context, tag string) error
	List(ctx context.Context, filter ListFilter) ([]*Equipment, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	CountAwaitingRenewalApproval(ctx context.Context) (int64, error)

	AppendMovement(ctx context.Context, m *Movement) error
	CountMovements(ctx context.Context, tag string) (int64, error)
	Movements(ctx context.Context, tag string) ([]*Movement, error)
	RecentMovements(ctx context.Context, limit int) ([]*Movement, error)

	IsCatalogValueInUse(ctx context.Context, kind, value string) (bool, error)

	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// CatalogReader exposes the active reference values equipment fields are
// checked against.
type CatalogReader interface {
	ActiveValues(ctx context.Context, kind string) ([]string, error)
}
