package domain

import "context"

// CatalogPort reads the full location catalog
type CatalogPort interface {
	All(ctx context.Context) ([]Location, error)
}

// ImportPort writes catalog entries
type ImportPort interface {
	Import(ctx context.Context, locs []Location) (int, error)
}
