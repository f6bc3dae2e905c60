package query

import (
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

var operators = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

var reserved = map[string]bool{
	"page":    true,
	"limit":   true,
	"sort":    true,
	"fields":  true,
	"keyword": true,
}

// Allow lists the columns a resource exposes to each query feature.
// Anything not listed is silently ignored, which also keeps raw query
// keys out of the generated SQL.
type Allow struct {
	Filter []string
	Sort   []string
	Select []string
	Search []string
}

type condition struct {
	column string
	op     string
	value  string
}

// Query is a parsed, allow-list-checked view of a list request's
// query string.
type Query struct {
	Page    int
	Limit   int
	conds   []condition
	keyword string
	search  []string
	orderBy []string
	selects []string
}

// Parse reads filtering, search, sort, projection and pagination
// parameters from a query string. Unknown columns and malformed values
// are dropped rather than rejected.
func Parse(values url.Values, allow Allow) Query {
	q := Query{
		Page:  intDefault(values.Get("page"), 1),
		Limit: intDefault(values.Get("limit"), DefaultLimit),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		q.Limit = DefaultLimit
	}

	for key, vals := range values {
		if reserved[key] || len(vals) == 0 {
			continue
		}
		column, op, ok := splitOperator(key)
		if !ok || !contains(allow.Filter, column) {
			continue
		}
		q.conds = append(q.conds, condition{column: column, op: op, value: vals[0]})
	}

	if kw := strings.TrimSpace(values.Get("keyword")); kw != "" && len(allow.Search) > 0 {
		q.keyword = kw
		q.search = allow.Search
	}

	for _, part := range strings.Split(values.Get("sort"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		column := strings.TrimPrefix(part, "-")
		if !contains(allow.Sort, column) {
			continue
		}
		if desc {
			q.orderBy = append(q.orderBy, column+" DESC")
		} else {
			q.orderBy = append(q.orderBy, column+" ASC")
		}
	}

	for _, part := range strings.Split(values.Get("fields"), ",") {
		part = strings.TrimSpace(part)
		if part == "" || !contains(allow.Select, part) {
			continue
		}
		q.selects = append(q.selects, part)
	}
	if len(q.selects) > 0 && !contains(q.selects, "id") {
		q.selects = append([]string{"id"}, q.selects...)
	}

	return q
}

// Scope applies filter and search conditions only. Used for counting
// before pagination.
func (q Query) Scope(db *gorm.DB) *gorm.DB {
	for _, cond := range q.conds {
		db = db.Where(cond.column+" "+cond.op+" ?", cond.value)
	}
	if q.keyword != "" {
		pattern := "%" + strings.ToLower(q.keyword) + "%"
		clauses := make([]string, len(q.search))
		args := make([]interface{}, len(q.search))
		for i, col := range q.search {
			clauses[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = pattern
		}
		db = db.Where(strings.Join(clauses, " OR "), args...)
	}
	return db
}

// Apply adds ordering, projection and pagination on top of Scope.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	db = q.Scope(db)
	if len(q.selects) > 0 {
		db = db.Select(q.selects)
	}
	if len(q.orderBy) > 0 {
		db = db.Order(strings.Join(q.orderBy, ", "))
	} else {
		db = db.Order("id DESC")
	}
	return db.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
}

// splitOperator parses `col[op]` keys. A bracketed operator that is
// not in the operators map marks the whole condition as dropped rather
// than degrading to equality.
func splitOperator(key string) (column, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, "=", true
	}
	if !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	name := key[open+1 : len(key)-1]
	sql, known := operators[name]
	if !known {
		return key[:open], "", false
	}
	return key[:open], sql, true
}

func intDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
