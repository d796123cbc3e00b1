package filter

import (
	"sort"
	"strings"

	"GraphQueryAPI/internal/gid"
	"GraphQueryAPI/internal/registry"

	"github.com/pkg/errors"
)

// Node is a structured filter tree: field name -> operator -> comparison
// value. A field may also carry a bare value (shorthand for eq) or a list of
// operator mappings. All clauses are conjoined; the filter language has no
// native OR or NOT-of-group.
type Node map[string]any

type Operator string

const (
	OpEq        Operator = "eq"
	OpNe        Operator = "ne"
	OpIn        Operator = "in"
	OpNin       Operator = "nin"
	OpGt        Operator = "gt"
	OpGte       Operator = "gte"
	OpLt        Operator = "lt"
	OpLte       Operator = "lte"
	OpRegex     Operator = "regex"
	OpGlob      Operator = "glob"
	OpElemMatch Operator = "elemMatch"
	OpStartWith Operator = "start_with"

	// OpSearch is appended by the orchestrator for the free-text search
	// argument; it is not accepted inside a filter tree.
	OpSearch Operator = "search"
)

// operators is the closed set accepted in filter trees. An operator outside
// this table is a request-time error, never a silent pass-through.
var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpIn: true, OpNin: true,
	OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpRegex: true, OpGlob: true, OpElemMatch: true, OpStartWith: true,
}

// listOperators take an array of comparison values.
var listOperators = map[Operator]bool{OpIn: true, OpNin: true}

// Predicate is one (field, operator, value) clause ready for a data source.
// For OpElemMatch the value is a nested []Predicate against array elements.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

var (
	ErrUnsupportedOperator     = errors.New("unsupported filter operator")
	ErrInvalidIdentifierFilter = errors.New("invalid identifier in filter")
)

// Translate converts a filter tree into an ordered predicate list. Fields
// following the identifier convention ("id", "*_id", "*_ids") have their
// values decoded through the global identifier codec, so clients filter by
// opaque token while the data source sees the local id. Field and operator
// clauses are emitted in sorted order so the result is deterministic.
func Translate(node Node, desc *registry.TypeDescriptor, codec *gid.Codec) ([]Predicate, error) {
	if len(node) == 0 {
		return nil, nil
	}

	fields := make([]string, 0, len(node))
	for f := range node {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var preds []Predicate
	for _, field := range fields {
		clauses, err := clauseMaps(field, node[field])
		if err != nil {
			return nil, err
		}
		for _, clause := range clauses {
			ops := make([]string, 0, len(clause))
			for op := range clause {
				ops = append(ops, op)
			}
			sort.Strings(ops)
			for _, opName := range ops {
				p, err := translateClause(field, Operator(opName), clause[opName], desc, codec)
				if err != nil {
					return nil, err
				}
				preds = append(preds, p)
			}
		}
	}
	return preds, nil
}

// clauseMaps нормализует значение поля фильтра к списку operator->value карт.
func clauseMaps(field string, raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		clauses := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				// список голых значений — это eq-шорткат для in
				return []map[string]any{{string(OpIn): v}}, nil
			}
			clauses = append(clauses, m)
		}
		return clauses, nil
	default:
		// голое значение — шорткат для eq
		return []map[string]any{{string(OpEq): raw}}, nil
	}
}

func translateClause(field string, op Operator, value any, desc *registry.TypeDescriptor, codec *gid.Codec) (Predicate, error) {
	if !operators[op] {
		return Predicate{}, errors.Wrapf(ErrUnsupportedOperator, "operator %q on field %q", op, field)
	}

	if op == OpElemMatch {
		nested, ok := value.(map[string]any)
		if !ok {
			return Predicate{}, errors.Wrapf(ErrUnsupportedOperator, "elemMatch on field %q requires a nested filter", field)
		}
		inner, err := Translate(Node(nested), desc, codec)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Field: field, Op: OpElemMatch, Value: inner}, nil
	}

	if IsIdentifierField(field) {
		decoded, err := decodeIdentifierValue(field, op, value, desc, codec)
		if err != nil {
			return Predicate{}, err
		}
		value = decoded
	}

	if listOperators[op] {
		if _, ok := value.([]any); !ok {
			return Predicate{}, errors.Wrapf(ErrUnsupportedOperator, "operator %q on field %q requires an array value", op, field)
		}
	}

	return Predicate{Field: field, Op: op, Value: value}, nil
}

// IsIdentifierField reports whether a field name follows the identifier
// suffix convention and therefore carries global id tokens in filters.
func IsIdentifierField(field string) bool {
	return field == "id" || strings.HasSuffix(field, "_id") || strings.HasSuffix(field, "_ids")
}

// decodeIdentifierValue проверяет и декодирует значение(я) поля-идентификатора.
// Любая ошибка декодирования проваливает всю трансляцию: молчаливая подмена
// значения вернула бы клиенту больше строк, чем он отфильтровал.
func decodeIdentifierValue(field string, op Operator, value any, desc *registry.TypeDescriptor, codec *gid.Codec) (any, error) {
	decodeOne := func(raw any) (any, error) {
		token, ok := raw.(string)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidIdentifierFilter, "field %q: identifier value must be a string token", field)
		}
		typeName, localID, err := codec.DecodeID(token)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidIdentifierFilter, "field %q: %v", field, err)
		}
		if want := desc.RefTarget(field); want != "" && typeName != want {
			return nil, errors.Wrapf(ErrInvalidIdentifierFilter, "field %q: token refers to %q, expected %q", field, typeName, want)
		}
		return localID, nil
	}

	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, raw := range list {
			decoded, err := decodeOne(raw)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	}
	return decodeOne(value)
}
