package option

import "gorm.io/gorm"

// QuerySortBy orders a query by a column, e.g. {Field: "created_at", OrderBy: "DESC"}.
type QuerySortBy struct {
	Field   string
	OrderBy string
}

type QueryPagination struct {
	Limit  int
	Offset int
}

// QueryOption mutates the gorm query before execution.
type QueryOption func(tx *gorm.DB) *gorm.DB

func WithSortBy(sort QuerySortBy) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		field := sort.Field
		if field == "" {
			field = "created_at"
		}
		order := sort.OrderBy
		if order == "" {
			order = "ASC"
		}
		return tx.Order(field + " " + order)
	}
}

func WithPagination(p QueryPagination) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if p.Limit > 0 {
			tx = tx.Limit(p.Limit)
		}
		if p.Offset > 0 {
			tx = tx.Offset(p.Offset)
		}
		return tx
	}
}

// Apply runs every option against the query.
func Apply(tx *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}
