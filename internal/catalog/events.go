package catalog

import "context"

// Publisher receives notifications after catalog mutations commit.
// Implementations must not block the mutation and must not fail it;
// publish failures are the publisher's to log.
type Publisher interface {
	BookCreated(ctx context.Context, book Book)
	BookDeleted(ctx context.Context, id int)
}
