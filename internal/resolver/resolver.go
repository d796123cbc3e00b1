package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"GraphQueryAPI/internal/connection"
	"GraphQueryAPI/internal/filter"
	"GraphQueryAPI/internal/gid"
	"GraphQueryAPI/internal/logger"
	"GraphQueryAPI/internal/registry"
	"GraphQueryAPI/internal/source"
)

// SourceFactory выдаёт базовый источник данных для дескриптора типа.
// В проде это sqlsource поверх пула pgx, в тестах — memsource.
type SourceFactory func(desc *registry.TypeDescriptor) source.Source

var (
	// Sources is wired in main (and swapped in tests).
	Sources SourceFactory

	// MaxPageSize bounds a page when the request names no limit; set from config.
	MaxPageSize uint64 = connection.DefaultMaxPageSize
)

// IDCodec is the shared identifier codec, bound to the live registry.
var IDCodec = gid.NewCodec(registry.Has)

// ErrNotFound: валидный токен, но такой сущности в хранилище нет.
var ErrNotFound = errors.New("entity not found")

// Resolve выполняет один запрос соединения: сортировка по умолчанию,
// трансляция фильтра, затем оконная сборка. Между запросами ничего не
// разделяется; единственный totalCount на запрос считается внутри Build.
func Resolve(ctx context.Context, req QueryRequest) (*connection.Connection, error) {
	desc, err := registry.Resolve(req.Type)
	if err != nil {
		return nil, err
	}

	preds, err := filter.Translate(req.Filter, desc, IDCodec)
	if err != nil {
		return nil, err
	}
	if req.Search != "" {
		preds = append(preds, filter.Predicate{Op: filter.OpSearch, Value: req.Search})
	}

	ord := source.Order{By: "id", Desc: true}
	if req.Order != nil && req.Order.By != "" {
		ord = source.Order{
			By:   req.Order.By,
			Desc: strings.EqualFold(req.Order.Direction, "desc"),
		}
	}

	src := Sources(desc).Filter(preds).Order(ord)

	conn, err := connection.Build(ctx, src, connection.Request{
		First:  req.First,
		After:  req.After,
		Last:   req.Last,
		Before: req.Before,
		Skip:   req.Skip,
	}, MaxPageSize)
	if err != nil {
		return nil, err
	}

	// Сырой первичный ключ наружу не отдаём: id каждой ноды — глобальный токен.
	for _, edge := range conn.Edges {
		encodeNodeID(desc, edge.Node)
	}
	return conn, nil
}

// Count returns the filtered collection size without materializing a window.
func Count(ctx context.Context, req CountRequest) (uint64, error) {
	desc, err := registry.Resolve(req.Type)
	if err != nil {
		return 0, err
	}
	preds, err := filter.Translate(req.Filter, desc, IDCodec)
	if err != nil {
		return 0, err
	}
	if req.Search != "" {
		preds = append(preds, filter.Predicate{Op: filter.OpSearch, Value: req.Search})
	}
	return Sources(desc).Filter(preds).Count(ctx)
}

// Node resolves an entity by opaque global identifier through a
// request-scoped loader.
func Node(ctx context.Context, req NodeRequest) (map[string]any, error) {
	typeName, localID, err := IDCodec.DecodeID(req.ID)
	if err != nil {
		return nil, err
	}

	loader := NewLoader(fetchByID)
	item, err := loader.ForKey(ctx, typeName, localID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.Wrapf(ErrNotFound, "%s %q", typeName, req.ID)
	}

	desc, err := registry.Resolve(typeName)
	if err != nil {
		return nil, err
	}
	encodeNodeID(desc, item)
	return item, nil
}

// fetchByID is the Loader's underlying fetch: primary key lookup, one row.
func fetchByID(ctx context.Context, typeName, localID string) (map[string]any, error) {
	desc, err := registry.Resolve(typeName)
	if err != nil {
		return nil, err
	}
	items, err := Sources(desc).
		Filter([]filter.Predicate{{Field: "id", Op: filter.OpEq, Value: localID}}).
		Limit(1).
		Materialize(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		logger.Debug("node_not_found", map[string]any{"type": typeName, "id": localID})
		return nil, nil
	}
	return items[0], nil
}

// encodeNodeID replaces the raw primary key value with the opaque token.
func encodeNodeID(desc *registry.TypeDescriptor, item map[string]any) {
	raw, ok := item[desc.IDColumn]
	if !ok || raw == nil {
		return
	}
	delete(item, desc.IDColumn)
	item["id"] = IDCodec.EncodeID(desc.Name, fmt.Sprint(raw))
}
