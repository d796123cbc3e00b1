// Package connection собирает постраничный конверт ответа: окно выборки,
// курсорные границы и метаданные страниц поверх абстракции источника данных.
package connection

import (
	"context"

	"GraphQueryAPI/internal/gid"
	"GraphQueryAPI/internal/source"

	"github.com/pkg/errors"
)

// DefaultMaxPageSize bounds a page when the request names no limit.
const DefaultMaxPageSize = 100

// Request carries the pagination arguments of one connection field.
// First/Last are pointers so that an absent argument is distinguishable
// from an explicit zero.
type Request struct {
	First  *uint64 `json:"first"`
	After  string  `json:"after"`
	Last   *uint64 `json:"last"`
	Before string  `json:"before"`
	Skip   uint64  `json:"skip"`
}

// Order mirrors the request-level ordering argument.
type Order struct {
	By        string `json:"by"`
	Direction string `json:"direction"` // "asc" | "desc"
}

type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

type Edge struct {
	Cursor string         `json:"cursor"`
	Node   map[string]any `json:"node"`
}

// Connection is the response envelope. totalPages/currentPage are a
// secondary, numbered addressing mode layered on top of cursors for clients
// with page-number UIs; they require the full count of the filtered
// collection, which is inherently more expensive than cursor scanning.
type Connection struct {
	TotalCount  uint64   `json:"totalCount"`
	TotalPages  uint64   `json:"totalPages"`
	CurrentPage uint64   `json:"currentPage"`
	PageInfo    PageInfo `json:"pageInfo"`
	Edges       []Edge   `json:"edges"`
}

var ErrInvalidArguments = errors.New("invalid pagination arguments")

// Build computes the visible window of an already filtered and ordered
// source. Argument legality is checked before any data source call:
//   - first и last вместе недопустимы;
//   - after сочетается только с first, before — только с last;
//   - skip всегда допустим и задаёт базовое смещение, которое курсор after
//     перекрывает (курсор — абсолютная позиция в той же последовательности).
func Build(ctx context.Context, src source.Source, req Request, maxPageSize uint64) (*Connection, error) {
	if req.First != nil && req.Last != nil {
		return nil, errors.Wrap(ErrInvalidArguments, "first and last cannot be combined")
	}
	if req.First != nil && req.Before != "" {
		return nil, errors.Wrap(ErrInvalidArguments, "first pairs with after, not before")
	}
	if req.Last != nil && req.After != "" {
		return nil, errors.Wrap(ErrInvalidArguments, "last pairs with before, not after")
	}
	if maxPageSize == 0 {
		maxPageSize = DefaultMaxPageSize
	}

	// Единственный Count на запрос: totalCount считается по отфильтрованной
	// последовательности до любого окна, включая пропущенные skip элементы.
	total, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}

	start := req.Skip
	if req.After != "" {
		pos, err := gid.DecodeCursor(req.After)
		if err != nil {
			return nil, errors.WithMessage(err, "argument after")
		}
		start = pos + 1
	}

	end := total
	if req.Before != "" {
		pos, err := gid.DecodeCursor(req.Before)
		if err != nil {
			return nil, errors.WithMessage(err, "argument before")
		}
		if pos < end {
			end = pos
		}
	}

	if start > end {
		start = end
	}

	switch {
	case req.First != nil:
		if start+*req.First < end {
			end = start + *req.First
		}
	case req.Last != nil:
		if end-start > *req.Last {
			start = end - *req.Last
		}
	default:
		if start+maxPageSize < end {
			end = start + maxPageSize
		}
	}

	var items []map[string]any
	if end > start {
		items, err = src.Offset(start).Limit(end - start).Materialize(ctx)
		if err != nil {
			return nil, err
		}
	}

	edges := make([]Edge, 0, len(items))
	for i, item := range items {
		edges = append(edges, Edge{
			Cursor: gid.EncodeCursor(start + uint64(i)),
			Node:   item,
		})
	}

	pageInfo := PageInfo{
		HasNextPage:     start+uint64(len(edges)) < total,
		HasPreviousPage: start > 0,
	}
	if len(edges) > 0 {
		startCursor := edges[0].Cursor
		endCursor := edges[len(edges)-1].Cursor
		pageInfo.StartCursor = &startCursor
		pageInfo.EndCursor = &endCursor
	}

	pageSize := maxPageSize
	if req.First != nil && *req.First > 0 {
		pageSize = *req.First
	}

	return &Connection{
		TotalCount:  total,
		TotalPages:  (total + pageSize - 1) / pageSize,
		CurrentPage: req.Skip/pageSize + 1,
		PageInfo:    pageInfo,
		Edges:       edges,
	}, nil
}
