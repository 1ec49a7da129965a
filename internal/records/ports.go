package records

import (
	"context"

	"tempo/internal/core"
)

// Ports for the activity record store.
type (
	// Writer mutates records. Update and Delete return an error wrapping
	// core.ErrNotFound when id does not exist.
	Writer interface {
		Insert(ctx context.Context, date core.Date, activity string, durationMinutes int, notes string) (id int64, err error)
		Update(ctx context.Context, id int64, date core.Date, activity string, durationMinutes int, notes string) error
		Delete(ctx context.Context, id int64) error
	}

	// Reader returns snapshots ordered by date ascending, then by id ascending.
	Reader interface {
		Get(ctx context.Context, id int64) (core.ActivityRecord, error)
		QueryRange(ctx context.Context, start, end core.Date) ([]core.ActivityRecord, error)
		QueryAll(ctx context.Context) ([]core.ActivityRecord, error)
	}

	// NameLister feeds input suggestions.
	NameLister interface {
		// DistinctActivityNames returns every activity name once, sorted ascending.
		DistinctActivityNames(ctx context.Context) ([]string, error)
	}

	// Searcher finds records whose activity contains query, ignoring case.
	Searcher interface {
		Search(ctx context.Context, query string) ([]core.ActivityRecord, error)
	}

	// SecretStore persists the hashed access secret. Found is false before first setup.
	SecretStore interface {
		LoadSecretHash(ctx context.Context) (hash string, found bool, err error)
		SaveSecretHash(ctx context.Context, hash string) error
	}

	// Store is everything a backend provides.
	Store interface {
		Writer
		Reader
		NameLister
		Searcher
		SecretStore
		Close() error
	}
)
