package connection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"GraphQueryAPI/internal/gid"
	"GraphQueryAPI/internal/source"
	"GraphQueryAPI/internal/source/memsource"
)

func sequence(n int) source.Source {
	items := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		// источник приходит уже упорядоченным: id по убыванию
		items[i] = map[string]any{"id": fmt.Sprintf("%d", n-i)}
	}
	return memsource.New(items)
}

func u(v uint64) *uint64 { return &v }

func cursorOf(t *testing.T, e Edge) uint64 {
	t.Helper()
	pos, err := gid.DecodeCursor(e.Cursor)
	if err != nil {
		t.Fatalf("decode edge cursor: %v", err)
	}
	return pos
}

func TestFirstTwoOf351(t *testing.T) {
	conn, err := Build(context.Background(), sequence(351), Request{First: u(2)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if conn.TotalCount != 351 {
		t.Fatalf("TotalCount = %d, want 351", conn.TotalCount)
	}
	if len(conn.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(conn.Edges))
	}
	if cursorOf(t, conn.Edges[0]) != 0 || cursorOf(t, conn.Edges[1]) != 1 {
		t.Fatalf("edge cursors must be positions 0 and 1")
	}
	if !conn.PageInfo.HasNextPage || conn.PageInfo.HasPreviousPage {
		t.Fatalf("pageInfo mismatch: %+v", conn.PageInfo)
	}
	if conn.Edges[0].Node["id"] != "351" {
		t.Fatalf("descending order expected, first node id = %v", conn.Edges[0].Node["id"])
	}
}

func TestSkipTenFirstFiveOfTwelve(t *testing.T) {
	conn, err := Build(context.Background(), sequence(12), Request{Skip: 10, First: u(5)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(conn.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(conn.Edges))
	}
	if cursorOf(t, conn.Edges[0]) != 10 || cursorOf(t, conn.Edges[1]) != 11 {
		t.Fatalf("edges must cover positions 10-11")
	}
	if conn.PageInfo.HasNextPage || !conn.PageInfo.HasPreviousPage {
		t.Fatalf("pageInfo mismatch: %+v", conn.PageInfo)
	}
}

func TestEmptySource(t *testing.T) {
	conn, err := Build(context.Background(), sequence(0), Request{First: u(10)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if conn.TotalCount != 0 || len(conn.Edges) != 0 {
		t.Fatalf("empty source: %+v", conn)
	}
	pi := conn.PageInfo
	if pi.HasNextPage || pi.HasPreviousPage || pi.StartCursor != nil || pi.EndCursor != nil {
		t.Fatalf("pageInfo for empty source: %+v", pi)
	}
}

func TestFirstLargerThanRemaining(t *testing.T) {
	conn, err := Build(context.Background(), sequence(3), Request{First: u(10)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(conn.Edges) != 3 || conn.PageInfo.HasNextPage {
		t.Fatalf("want all 3 remaining edges and hasNextPage=false, got %d edges, %+v", len(conn.Edges), conn.PageInfo)
	}
}

func TestSkipBeyondCollection(t *testing.T) {
	conn, err := Build(context.Background(), sequence(5), Request{Skip: 50}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(conn.Edges) != 0 {
		t.Fatalf("expected empty page, got %d edges", len(conn.Edges))
	}
	if !conn.PageInfo.HasPreviousPage {
		t.Fatal("skip>0 over non-empty collection: hasPreviousPage must be true")
	}
	if conn.TotalCount != 5 {
		t.Fatalf("skip must not shrink totalCount: %d", conn.TotalCount)
	}
}

func TestAfterCursor(t *testing.T) {
	conn, err := Build(context.Background(), sequence(10), Request{After: gid.EncodeCursor(3), First: u(2)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cursorOf(t, conn.Edges[0]) != 4 {
		t.Fatalf("after cursor 3 must start at position 4, got %d", cursorOf(t, conn.Edges[0]))
	}
	if !conn.PageInfo.HasNextPage || !conn.PageInfo.HasPreviousPage {
		t.Fatalf("pageInfo mismatch: %+v", conn.PageInfo)
	}
}

func TestLastWithBefore(t *testing.T) {
	conn, err := Build(context.Background(), sequence(20), Request{Last: u(3), Before: gid.EncodeCursor(10)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(conn.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(conn.Edges))
	}
	if cursorOf(t, conn.Edges[0]) != 7 || cursorOf(t, conn.Edges[2]) != 9 {
		t.Fatalf("last 3 before position 10 must cover 7-9")
	}
	if !conn.PageInfo.HasNextPage || !conn.PageInfo.HasPreviousPage {
		t.Fatalf("pageInfo mismatch: %+v", conn.PageInfo)
	}
}

func TestSkipMonotonicity(t *testing.T) {
	base, err := Build(context.Background(), sequence(30), Request{Skip: 4, First: u(3)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	shifted, err := Build(context.Background(), sequence(30), Request{Skip: 9, First: u(3)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cursorOf(t, shifted.Edges[0])-cursorOf(t, base.Edges[0]) != 5 {
		t.Fatal("increasing skip by 5 must shift the window start by exactly 5")
	}
}

func TestInvalidArgumentCombinations(t *testing.T) {
	cases := []Request{
		{First: u(1), Last: u(1)},
		{First: u(1), Before: gid.EncodeCursor(3)},
		{Last: u(1), After: gid.EncodeCursor(3)},
	}
	for _, req := range cases {
		if _, err := Build(context.Background(), sequence(10), req, 0); !errors.Is(err, ErrInvalidArguments) {
			t.Fatalf("request %+v: want ErrInvalidArguments, got %v", req, err)
		}
	}
}

func TestMalformedCursorRejectsRequest(t *testing.T) {
	_, err := Build(context.Background(), sequence(10), Request{After: "garbage", First: u(2)}, 0)
	if !errors.Is(err, gid.ErrMalformedCursor) {
		t.Fatalf("want ErrMalformedCursor, got %v", err)
	}
}

func TestDefaultPageSizeBoundsWindow(t *testing.T) {
	conn, err := Build(context.Background(), sequence(250), Request{}, 100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(conn.Edges) != 100 {
		t.Fatalf("default page size: got %d edges, want 100", len(conn.Edges))
	}
	if !conn.PageInfo.HasNextPage {
		t.Fatal("hasNextPage must be true with 150 elements remaining")
	}
}

func TestNumberedPagination(t *testing.T) {
	conn, err := Build(context.Background(), sequence(25), Request{Skip: 10, First: u(5)}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if conn.TotalPages != 5 {
		t.Fatalf("TotalPages = %d, want ceil(25/5)=5", conn.TotalPages)
	}
	if conn.CurrentPage != 3 {
		t.Fatalf("CurrentPage = %d, want floor(10/5)+1=3", conn.CurrentPage)
	}
}
