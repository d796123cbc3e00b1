package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"GraphQueryAPI/internal/filter"
	"GraphQueryAPI/internal/gid"
	"GraphQueryAPI/internal/registry"
	"GraphQueryAPI/internal/source"
	"GraphQueryAPI/internal/source/memsource"
)

// setupWorld wires the registry and source factory to in-memory fixtures and
// restores the globals on cleanup.
func setupWorld(t *testing.T, data map[string][]map[string]any) {
	t.Helper()

	oldRegistry := registry.Registry
	oldSources := Sources
	t.Cleanup(func() {
		registry.Registry = oldRegistry
		Sources = oldSources
	})

	registry.Registry = map[string]*registry.TypeDescriptor{
		"Person": {Name: "Person", Table: "people", IDColumn: "id", Search: []string{"name"}},
		"Post":   {Name: "Post", Table: "posts", IDColumn: "id", Refs: map[string]string{"author_id": "Person"}},
	}
	Sources = func(desc *registry.TypeDescriptor) source.Source {
		return memsource.New(data[desc.Name])
	}
}

func posts(n int) []map[string]any {
	items := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		items[i] = map[string]any{
			"id":        i + 1,
			"title":     fmt.Sprintf("post %d", i+1),
			"approved":  (i+1)%2 == 0,
			"author_id": "7",
		}
	}
	return items
}

func TestResolveDefaultOrderIsIDDescending(t *testing.T) {
	setupWorld(t, map[string][]map[string]any{"Post": posts(5)})

	conn, err := Resolve(context.Background(), QueryRequest{Type: "Post"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conn.Edges[0].Node["title"] != "post 5" {
		t.Fatalf("default order must be id desc, first node: %v", conn.Edges[0].Node)
	}
}

func TestResolveEncodesNodeIDs(t *testing.T) {
	setupWorld(t, map[string][]map[string]any{"Post": posts(2)})

	conn, err := Resolve(context.Background(), QueryRequest{Type: "Post"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	token, ok := conn.Edges[0].Node["id"].(string)
	if !ok {
		t.Fatalf("node id must be an opaque token, got %v", conn.Edges[0].Node["id"])
	}
	typeName, localID, err := IDCodec.DecodeID(token)
	if err != nil {
		t.Fatalf("DecodeID: %v", err)
	}
	if typeName != "Post" || localID != "2" {
		t.Fatalf("token decodes to (%s, %s), want (Post, 2)", typeName, localID)
	}
}

func TestResolveAppliesFilterAndIdentifierDecoding(t *testing.T) {
	data := posts(10)
	data[3]["author_id"] = "9" // post 4
	data[8]["author_id"] = "9" // post 9
	setupWorld(t, map[string][]map[string]any{"Post": data})

	token := IDCodec.EncodeID("Person", "9")
	conn, err := Resolve(context.Background(), QueryRequest{
		Type:   "Post",
		Filter: filter.Node{"author_id": map[string]any{"eq": token}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conn.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", conn.TotalCount)
	}
	if conn.Edges[0].Node["title"] != "post 9" || conn.Edges[1].Node["title"] != "post 4" {
		t.Fatalf("filtered nodes mismatch: %v, %v", conn.Edges[0].Node, conn.Edges[1].Node)
	}
}

func TestResolveFilterSelectsApprovedSubset(t *testing.T) {
	// 3 of 10 approved
	data := posts(10)
	for i := range data {
		data[i]["approved"] = i < 3
	}
	setupWorld(t, map[string][]map[string]any{"Post": data})

	conn, err := Resolve(context.Background(), QueryRequest{
		Type:   "Post",
		Filter: filter.Node{"approved": map[string]any{"eq": true}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conn.TotalCount != 3 || len(conn.Edges) != 3 {
		t.Fatalf("want exactly the 3 approved posts, got total=%d edges=%d", conn.TotalCount, len(conn.Edges))
	}
}

func TestResolveSearchDelegatesToSource(t *testing.T) {
	setupWorld(t, map[string][]map[string]any{"Post": posts(10)})

	conn, err := Resolve(context.Background(), QueryRequest{Type: "Post", Search: "post 7"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conn.TotalCount != 1 {
		t.Fatalf("search: TotalCount = %d, want 1", conn.TotalCount)
	}
}

func TestResolveUnknownType(t *testing.T) {
	setupWorld(t, nil)
	if _, err := Resolve(context.Background(), QueryRequest{Type: "Ghost"}); !errors.Is(err, gid.ErrUnknownType) {
		t.Fatalf("want ErrUnknownType, got %v", err)
	}
}

func TestResolveRejectsUnsupportedOperatorBeforeDataAccess(t *testing.T) {
	setupWorld(t, map[string][]map[string]any{"Post": posts(3)})
	_, err := Resolve(context.Background(), QueryRequest{
		Type:   "Post",
		Filter: filter.Node{"title": map[string]any{"fuzzy": "x"}},
	})
	if !errors.Is(err, filter.ErrUnsupportedOperator) {
		t.Fatalf("want ErrUnsupportedOperator, got %v", err)
	}
}

func TestCount(t *testing.T) {
	data := posts(10)
	for i := range data {
		data[i]["approved"] = i%2 == 0
	}
	setupWorld(t, map[string][]map[string]any{"Post": data})

	n, err := Count(context.Background(), CountRequest{
		Type:   "Post",
		Filter: filter.Node{"approved": map[string]any{"eq": true}},
	})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 5 {
		t.Fatalf("Count = %d, want 5", n)
	}
}

func TestNodeLookup(t *testing.T) {
	setupWorld(t, map[string][]map[string]any{"Post": posts(5)})

	token := IDCodec.EncodeID("Post", "3")
	item, err := Node(context.Background(), NodeRequest{ID: token})
	if err != nil {
		t.Fatalf("Node: %v", err)
	}
	if item["title"] != "post 3" {
		t.Fatalf("node mismatch: %v", item)
	}
	if item["id"] != token {
		t.Fatalf("node id must round-trip to the same token, got %v", item["id"])
	}
}

func TestNodeMalformedToken(t *testing.T) {
	setupWorld(t, nil)
	if _, err := Node(context.Background(), NodeRequest{ID: "garbage"}); !errors.Is(err, gid.ErrMalformedIdentifier) {
		t.Fatalf("want ErrMalformedIdentifier, got %v", err)
	}
}
