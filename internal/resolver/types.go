package resolver

import (
	"GraphQueryAPI/internal/connection"
	"GraphQueryAPI/internal/filter"
)

// QueryRequest is the body of /api/query: one connection field resolution.
type QueryRequest struct {
	Type   string            `json:"type"`
	First  *uint64           `json:"first"`
	After  string            `json:"after"`
	Last   *uint64           `json:"last"`
	Before string            `json:"before"`
	Skip   uint64            `json:"skip"`
	Order  *connection.Order `json:"order"`
	Filter filter.Node       `json:"filter"`
	Search string            `json:"search"`
}

// NodeRequest is the body of /api/node: lookup by opaque global identifier.
type NodeRequest struct {
	ID string `json:"id"`
}

// CountRequest is the body of /api/count.
type CountRequest struct {
	Type   string      `json:"type"`
	Filter filter.Node `json:"filter"`
	Search string      `json:"search"`
}
