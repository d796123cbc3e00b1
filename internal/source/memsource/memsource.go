// Package memsource evaluates the data source abstraction over an in-memory
// slice of entities. It backs unit tests and any collection that is already
// materialized in process; semantics mirror the SQL source.
package memsource

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"GraphQueryAPI/internal/filter"
	"GraphQueryAPI/internal/source"
)

type Source struct {
	items []map[string]any
	preds []filter.Predicate
	ord   *source.Order

	offset   uint64
	limit    uint64
	hasLimit bool
}

func New(items []map[string]any) *Source {
	return &Source{items: items}
}

// Каждый шаг цепочки возвращает копию: исходный Source не мутируется,
// поэтому Count до Offset/Limit считает полную отфильтрованную выборку.
func (s *Source) clone() *Source {
	c := *s
	c.preds = append([]filter.Predicate(nil), s.preds...)
	return &c
}

func (s *Source) Filter(preds []filter.Predicate) source.Source {
	c := s.clone()
	c.preds = append(c.preds, preds...)
	return c
}

func (s *Source) Order(ord source.Order) source.Source {
	c := s.clone()
	c.ord = &ord
	return c
}

func (s *Source) Offset(n uint64) source.Source {
	c := s.clone()
	c.offset = n
	return c
}

func (s *Source) Limit(n uint64) source.Source {
	c := s.clone()
	c.limit = n
	c.hasLimit = true
	return c
}

// Count returns the size of the filtered sequence, ignoring any offset or
// limit already applied to the chain.
func (s *Source) Count(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	items, err := s.filtered()
	if err != nil {
		return 0, err
	}
	return uint64(len(items)), nil
}

func (s *Source) Materialize(ctx context.Context) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := s.filtered()
	if err != nil {
		return nil, err
	}

	if s.ord != nil {
		ord := *s.ord
		sort.SliceStable(items, func(i, j int) bool {
			cmp := compareValues(items[i][ord.By], items[j][ord.By])
			if ord.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if s.offset >= uint64(len(items)) {
		return []map[string]any{}, nil
	}
	items = items[s.offset:]
	if s.hasLimit && s.limit < uint64(len(items)) {
		items = items[:s.limit]
	}
	return items, nil
}

func (s *Source) filtered() ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(s.items))
	for _, item := range s.items {
		ok, err := matchesAll(item, s.preds)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func matchesAll(item map[string]any, preds []filter.Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := matches(item, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matches(item map[string]any, p filter.Predicate) (bool, error) {
	if p.Op == filter.OpSearch {
		return matchesSearch(item, fmt.Sprint(p.Value)), nil
	}

	val := item[p.Field]
	switch p.Op {
	case filter.OpEq:
		return equalValues(val, p.Value), nil
	case filter.OpNe:
		return !equalValues(val, p.Value), nil
	case filter.OpIn:
		return containsValue(p.Value, val), nil
	case filter.OpNin:
		return !containsValue(p.Value, val), nil
	case filter.OpGt:
		return compareValues(val, p.Value) > 0, nil
	case filter.OpGte:
		return compareValues(val, p.Value) >= 0, nil
	case filter.OpLt:
		return compareValues(val, p.Value) < 0, nil
	case filter.OpLte:
		return compareValues(val, p.Value) <= 0, nil
	case filter.OpRegex:
		return matchRegexp(fmt.Sprint(p.Value), val)
	case filter.OpGlob:
		return matchRegexp(filter.GlobToRegexp(fmt.Sprint(p.Value)), val)
	case filter.OpStartWith:
		str, ok := val.(string)
		return ok && strings.HasPrefix(str, fmt.Sprint(p.Value)), nil
	case filter.OpElemMatch:
		nested, ok := p.Value.([]filter.Predicate)
		if !ok {
			return false, fmt.Errorf("elemMatch on %q: nested predicates expected, got %T", p.Field, p.Value)
		}
		return matchesElem(val, nested)
	default:
		return false, fmt.Errorf("operator %q is not evaluable in memory", p.Op)
	}
}

func matchesElem(val any, nested []filter.Predicate) (bool, error) {
	elems, ok := val.([]any)
	if !ok {
		return false, nil
	}
	for _, raw := range elems {
		elem, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		match, err := matchesAll(elem, nested)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

func matchesSearch(item map[string]any, term string) bool {
	needle := strings.ToLower(term)
	for _, v := range item {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func matchRegexp(pattern string, val any) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	str, ok := val.(string)
	if !ok {
		return false, nil
	}
	return re.MatchString(str), nil
}

func containsValue(list any, val any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if equalValues(val, item) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if af, aok := numericValue(a); aok {
		if bf, bok := numericValue(b); bok {
			return af == bf
		}
	}
	return a == b
}

// numericValue распознаёт и числа, и их строковую форму: локальные id
// приходят из токенов строками, а в источнике могут лежать числами.
func numericValue(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// compareValues sorts nil first, then numbers, strings and bools.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs)
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
