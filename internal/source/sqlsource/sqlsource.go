// Package sqlsource реализует абстракцию источника данных поверх Postgres:
// предикаты транслируются в WHERE через squirrel, выполнение — через pgx.
package sqlsource

import (
	"context"
	"fmt"
	"regexp"

	"GraphQueryAPI/internal/filter"
	"GraphQueryAPI/internal/registry"
	"GraphQueryAPI/internal/source"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool and by a single pgx connection.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Source struct {
	db   Querier
	desc *registry.TypeDescriptor

	preds []filter.Predicate
	ord   *source.Order

	offset   uint64
	limit    uint64
	hasLimit bool
}

func New(db Querier, desc *registry.TypeDescriptor) *Source {
	return &Source{db: db, desc: desc}
}

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

// BuildSelect строит основной SELECT: FROM ... AS main, WHERE, ORDER BY,
// LIMIT/OFFSET. Плейсхолдеры — $N, как везде у pgx.
func (s *Source) BuildSelect() (squirrel.SelectBuilder, error) {
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Columns("main.*").
		From(fmt.Sprintf("%s AS main", s.desc.Table))

	where, err := s.whereClause()
	if err != nil {
		return sb, err
	}
	if where != nil {
		sb = sb.Where(where)
	}

	if s.ord != nil {
		col, err := s.column(s.ord.By)
		if err != nil {
			return sb, err
		}
		dir := "ASC"
		if s.ord.Desc {
			dir = "DESC"
		}
		sb = sb.OrderBy(fmt.Sprintf("%s %s", col, dir))
	}

	if s.hasLimit {
		sb = sb.Limit(s.limit)
	}
	if s.offset > 0 {
		sb = sb.Offset(s.offset)
	}
	return sb, nil
}

// BuildCount строит COUNT(*) по тем же фильтрам, без LIMIT/OFFSET:
// totalCount считается до оконной выборки.
func (s *Source) BuildCount() (squirrel.SelectBuilder, error) {
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Column("COUNT(*)").
		From(fmt.Sprintf("%s AS main", s.desc.Table))

	where, err := s.whereClause()
	if err != nil {
		return sb, err
	}
	if where != nil {
		sb = sb.Where(where)
	}
	return sb, nil
}

func (s *Source) Count(ctx context.Context) (uint64, error) {
	sb, err := s.BuildCount()
	if err != nil {
		return 0, err
	}
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.desc.Name, err)
	}
	return uint64(count), nil
}

func (s *Source) Materialize(ctx context.Context) ([]map[string]any, error) {
	sb, err := s.BuildSelect()
	if err != nil {
		return nil, err
	}
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", s.desc.Name, err)
	}
	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()
	fds := rows.FieldDescriptions()
	out := make([]map[string]any, 0, 64)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		item := make(map[string]any, len(fds))
		for i, fd := range fds {
			item[fd.Name] = vals[i]
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// column резолвит имя поля запроса в колонку main-таблицы. Имена полей
// попадают в SQL-текст, поэтому допускаются только простые идентификаторы.
func (s *Source) column(field string) (string, error) {
	col := s.desc.Column(field)
	if !identRe.MatchString(col) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return "main." + col, nil
}

func (s *Source) whereClause() (squirrel.Sqlizer, error) {
	if len(s.preds) == 0 {
		return nil, nil
	}
	exprs := make([]squirrel.Sqlizer, 0, len(s.preds))
	for _, p := range s.preds {
		cond, err := s.cond(p)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, cond)
	}
	return squirrel.And(exprs), nil
}

func (s *Source) cond(p filter.Predicate) (squirrel.Sqlizer, error) {
	if p.Op == filter.OpSearch {
		return s.searchCond(p.Value)
	}

	col, err := s.column(p.Field)
	if err != nil {
		return nil, err
	}
	switch p.Op {
	case filter.OpEq:
		return squirrel.Eq{col: p.Value}, nil
	case filter.OpNe:
		return squirrel.NotEq{col: p.Value}, nil
	case filter.OpIn:
		return squirrel.Eq{col: p.Value}, nil // slice -> IN
	case filter.OpNin:
		return squirrel.NotEq{col: p.Value}, nil // slice -> NOT IN
	case filter.OpGt:
		return squirrel.Gt{col: p.Value}, nil
	case filter.OpGte:
		return squirrel.GtOrEq{col: p.Value}, nil
	case filter.OpLt:
		return squirrel.Lt{col: p.Value}, nil
	case filter.OpLte:
		return squirrel.LtOrEq{col: p.Value}, nil
	case filter.OpRegex:
		return squirrel.Expr(col+" ~ ?", p.Value), nil
	case filter.OpGlob:
		return squirrel.Expr(col+" ~ ?", filter.GlobToRegexp(fmt.Sprint(p.Value))), nil
	case filter.OpStartWith:
		return squirrel.Like{col: escapeLike(fmt.Sprint(p.Value)) + "%"}, nil
	case filter.OpElemMatch:
		return s.elemMatchCond(col, p)
	default:
		return nil, fmt.Errorf("operator %q has no SQL translation", p.Op)
	}
}

// elemMatchCond: поле — jsonb-массив; условие — EXISTS по его элементам.
func (s *Source) elemMatchCond(col string, p filter.Predicate) (squirrel.Sqlizer, error) {
	nested, ok := p.Value.([]filter.Predicate)
	if !ok {
		return nil, fmt.Errorf("elemMatch on %q: nested predicates expected, got %T", p.Field, p.Value)
	}
	conds := make(squirrel.And, 0, len(nested))
	for _, np := range nested {
		cond, err := elemCond(np)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return squirrel.Expr(
		fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements(%s) AS elem WHERE ?)", col),
		conds,
	), nil
}

func elemCond(p filter.Predicate) (squirrel.Sqlizer, error) {
	if !identRe.MatchString(p.Field) {
		return nil, fmt.Errorf("invalid field name %q", p.Field)
	}
	switch p.Op {
	case filter.OpEq:
		return squirrel.Expr("elem->>? = ?", p.Field, textValue(p.Value)), nil
	case filter.OpNe:
		return squirrel.Expr("elem->>? <> ?", p.Field, textValue(p.Value)), nil
	case filter.OpIn:
		return squirrel.Expr("elem->>? = ANY(?)", p.Field, textValues(p.Value)), nil
	case filter.OpNin:
		return squirrel.Expr("NOT (elem->>? = ANY(?))", p.Field, textValues(p.Value)), nil
	case filter.OpGt:
		return squirrel.Expr("(elem->>?)::numeric > ?", p.Field, p.Value), nil
	case filter.OpGte:
		return squirrel.Expr("(elem->>?)::numeric >= ?", p.Field, p.Value), nil
	case filter.OpLt:
		return squirrel.Expr("(elem->>?)::numeric < ?", p.Field, p.Value), nil
	case filter.OpLte:
		return squirrel.Expr("(elem->>?)::numeric <= ?", p.Field, p.Value), nil
	case filter.OpRegex:
		return squirrel.Expr("elem->>? ~ ?", p.Field, p.Value), nil
	case filter.OpGlob:
		return squirrel.Expr("elem->>? ~ ?", p.Field, filter.GlobToRegexp(fmt.Sprint(p.Value))), nil
	case filter.OpStartWith:
		return squirrel.Expr("elem->>? LIKE ?", p.Field, escapeLike(fmt.Sprint(p.Value))+"%"), nil
	default:
		return nil, fmt.Errorf("operator %q is not supported inside elemMatch", p.Op)
	}
}

func (s *Source) searchCond(term any) (squirrel.Sqlizer, error) {
	if len(s.desc.Search) == 0 {
		return nil, fmt.Errorf("type %q has no search columns configured", s.desc.Name)
	}
	pattern := "%" + escapeLike(fmt.Sprint(term)) + "%"
	ors := make(squirrel.Or, 0, len(s.desc.Search))
	for _, col := range s.desc.Search {
		if !identRe.MatchString(col) {
			return nil, fmt.Errorf("invalid search column %q", col)
		}
		ors = append(ors, squirrel.ILike{"main." + col: pattern})
	}
	return ors, nil
}

// textValue: jsonb ->> отдаёт текст, сравниваем с текстовым представлением.
func textValue(v any) string {
	return fmt.Sprint(v)
}

func textValues(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{fmt.Sprint(v)}
	}
	out := make([]string, len(list))
	for i, item := range list {
		out[i] = fmt.Sprint(item)
	}
	return out
}

var likeEscaper = regexp.MustCompile(`([%_\\])`)

func escapeLike(s string) string {
	return likeEscaper.ReplaceAllString(s, `\$1`)
}
