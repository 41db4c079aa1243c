package apperr

import (
	"fmt"
	"math"
)

// PaginatedList is one page of a larger result set.
type PaginatedList[T any] struct {
	Items           []T  `json:"items"`
	PageNumber      int  `json:"pageNumber"`
	TotalPages      int  `json:"totalPages"`
	TotalCount      int  `json:"totalCount"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

func NewPaginatedList[T any](items []T, count, pageNumber, pageSize int) (PaginatedList[T], error) {
	if pageSize < 1 {
		return PaginatedList[T]{}, fmt.Errorf("page size must be at least 1, got %d", pageSize)
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	if items == nil {
		items = []T{}
	}

	totalPages := int(math.Ceil(float64(count) / float64(pageSize)))
	return PaginatedList[T]{
		Items:           items,
		PageNumber:      pageNumber,
		TotalPages:      totalPages,
		TotalCount:      count,
		HasPreviousPage: pageNumber > 1,
		HasNextPage:     pageNumber < totalPages,
	}, nil
}

// Offset is the row offset of pageNumber for the given page size.
func Offset(pageNumber, pageSize int) int {
	if pageNumber < 1 {
		pageNumber = 1
	}
	return (pageNumber - 1) * pageSize
}
