package taxii1

import (
	"context"
	"time"
)

// Repository is the TAXII 1.x persistence port (spec.md §4.6). Implemented
// by the in-memory and SQL-backed adapters.
type Repository interface {
	GetCollection(ctx context.Context, name string) (*Collection, error)
	GetCollections(ctx context.Context) ([]Collection, error)
	UpsertCollection(ctx context.Context, c Collection) error

	AddContentBlock(ctx context.Context, block ContentBlock) (*ContentBlock, error)
	GetContentBlocks(ctx context.Context, collectionName string, bindings []ContentBinding, begin, end *time.Time) ([]ContentBlock, error)

	AddInboxMessage(ctx context.Context, msg InboxMessage) (*InboxMessage, error)

	CreateResultSet(ctx context.Context, rs ResultSet) (*ResultSet, error)
	GetResultSet(ctx context.Context, id string) (*ResultSet, error)

	UpsertSubscription(ctx context.Context, sub Subscription) (*Subscription, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	ListSubscriptions(ctx context.Context, collectionName string) ([]Subscription, error)

	// GetAdvertisedServices returns the services advertised for discovery,
	// or every service if serviceID is empty (spec.md §4.6).
	GetAdvertisedServices(ctx context.Context, serviceID string) ([]Service, error)

	// UpsertService registers or updates an advertised service. Services are
	// deployment-time topology (declared in config), not runtime CRUD data,
	// so this is only called during startup seeding.
	UpsertService(ctx context.Context, svc Service) error
}
