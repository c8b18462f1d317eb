// Package query turns list-endpoint query strings into typed, validated
// store queries: an ownership scope, (field, operator, value) conditions,
// sort order, projection and pagination.
package query

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"alcyxob/fitness-hub/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Operator is a comparison applied to a field.
type Operator string

const (
	OpEq  Operator = "$eq"
	OpGt  Operator = "$gt"
	OpGte Operator = "$gte"
	OpLt  Operator = "$lt"
	OpLte Operator = "$lte"
)

var suffixOperators = map[string]Operator{
	"gte": OpGte,
	"gt":  OpGt,
	"lte": OpLte,
	"lt":  OpLt,
}

// OwnerParam is the query parameter naming the owner whose data is listed.
const OwnerParam = "userId"

// Parameters that control the query itself and never become filters.
var metaParams = map[string]struct{}{
	"page":     {},
	"sort":     {},
	"limit":    {},
	"fields":   {},
	OwnerParam: {},
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultSort  = "-date"
)

var keyPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)(?:\[([A-Za-z]+)\])?$`)

// Condition is one predicate: Field Op Value.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

type SortField struct {
	Field string
	Desc  bool
}

// Scope restricts a list to documents whose Field equals Owner.
type Scope struct {
	Field string
	Owner primitive.ObjectID
}

// Options describes what a resource allows to be filtered and sorted on.
type Options struct {
	// Fields lists the filterable, sortable and selectable field names.
	Fields []string
	// DefaultSort is used when the request has no sort; "-date" when empty.
	DefaultSort string
}

func (o Options) allows(field string) bool {
	for _, f := range o.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// List is a fully validated list query.
type List struct {
	Conditions []Condition
	Sort       []SortField
	Fields     []string
	Page       int
	Limit      int
}

// Skip is the number of matching documents before the requested page.
func (l List) Skip() int {
	return (l.Page - 1) * l.Limit
}

// TargetOwner returns the owner a list is scoped to: the userId parameter
// when present, the caller otherwise.
func TargetOwner(params url.Values, callerID primitive.ObjectID) (primitive.ObjectID, error) {
	raw := params.Get(OwnerParam)
	if raw == "" {
		return callerID, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s is not a valid id", domain.ErrInvalidQuery, OwnerParam)
	}
	return id, nil
}

// Build validates params against opts and produces a List. A non-nil scope
// is always the first condition and cannot be overridden by a filter.
func Build(params url.Values, scope *Scope, opts Options) (List, error) {
	list := List{
		Page:  positiveInt(params.Get("page"), DefaultPage),
		Limit: positiveInt(params.Get("limit"), DefaultLimit),
	}
	if list.Limit > MaxLimit {
		list.Limit = MaxLimit
	}

	if scope != nil {
		list.Conditions = append(list.Conditions, Condition{Field: scope.Field, Op: OpEq, Value: scope.Owner})
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, meta := metaParams[key]; meta {
			continue
		}
		cond, err := parseCondition(key, params[key], opts)
		if err != nil {
			return List{}, err
		}
		if scope != nil && cond.Field == scope.Field {
			continue
		}
		if _, meta := metaParams[cond.Field]; meta {
			continue
		}
		list.Conditions = append(list.Conditions, cond)
	}

	sortSpec := params.Get("sort")
	if strings.TrimSpace(sortSpec) == "" {
		sortSpec = opts.DefaultSort
		if sortSpec == "" {
			sortSpec = DefaultSort
		}
	}
	sortFields, err := parseSort(sortSpec, opts)
	if err != nil {
		return List{}, err
	}
	list.Sort = sortFields

	if raw := params.Get("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if !opts.allows(f) {
				return List{}, fmt.Errorf("%w: cannot select field %q", domain.ErrInvalidQuery, f)
			}
			list.Fields = append(list.Fields, f)
		}
	}

	return list, nil
}

func parseCondition(key string, values []string, opts Options) (Condition, error) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return Condition{}, fmt.Errorf("%w: malformed filter key %q", domain.ErrInvalidQuery, key)
	}
	field, suffix := m[1], m[2]

	op := OpEq
	if suffix != "" {
		var ok bool
		op, ok = suffixOperators[strings.ToLower(suffix)]
		if !ok {
			return Condition{}, fmt.Errorf("%w: unsupported operator %q on %q", domain.ErrInvalidQuery, suffix, field)
		}
	}
	if _, meta := metaParams[field]; !meta && !opts.allows(field) {
		return Condition{}, fmt.Errorf("%w: cannot filter on %q", domain.ErrInvalidQuery, field)
	}
	if len(values) != 1 {
		return Condition{}, fmt.Errorf("%w: %q given more than once", domain.ErrInvalidQuery, key)
	}
	if values[0] == "" {
		return Condition{}, fmt.Errorf("%w: empty value for %q", domain.ErrInvalidQuery, key)
	}
	return Condition{Field: field, Op: op, Value: coerce(values[0])}, nil
}

func parseSort(raw string, opts Options) ([]SortField, error) {
	var fields []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sf := SortField{Field: part}
		switch part[0] {
		case '-':
			sf = SortField{Field: part[1:], Desc: true}
		case '+':
			sf = SortField{Field: part[1:]}
		}
		if !opts.allows(sf.Field) {
			return nil, fmt.Errorf("%w: cannot sort on %q", domain.ErrInvalidQuery, sf.Field)
		}
		fields = append(fields, sf)
	}
	return fields, nil
}

// positiveInt parses raw, falling back to def on anything but a positive integer.
func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// coerce picks the most specific type a raw query value can be read as.
func coerce(raw string) any {
	if len(raw) == 24 {
		if id, err := primitive.ObjectIDFromHex(raw); err == nil {
			return id
		}
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	// ParseFloat also reads "inf" and "nan"; those stay strings.
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return raw
}

// Filter renders the conditions as a Mongo filter document. Conditions on
// the same field are merged into one operator document.
func (l List) Filter() bson.D {
	filter := bson.D{}
	index := map[string]int{}
	for _, c := range l.Conditions {
		i, seen := index[c.Field]
		if !seen {
			if c.Op == OpEq {
				filter = append(filter, bson.E{Key: c.Field, Value: c.Value})
			} else {
				filter = append(filter, bson.E{Key: c.Field, Value: bson.D{{Key: string(c.Op), Value: c.Value}}})
			}
			index[c.Field] = len(filter) - 1
			continue
		}
		ops, isDoc := filter[i].Value.(bson.D)
		if !isDoc {
			ops = bson.D{{Key: string(OpEq), Value: filter[i].Value}}
		}
		filter[i].Value = append(ops, bson.E{Key: string(c.Op), Value: c.Value})
	}
	return filter
}

// SortDoc renders the sort order as a Mongo sort document.
func (l List) SortDoc() bson.D {
	doc := bson.D{}
	for _, s := range l.Sort {
		dir := 1
		if s.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: s.Field, Value: dir})
	}
	return doc
}

// FindOptions carries sort, pagination and projection for Collection.Find.
func (l List) FindOptions() *options.FindOptions {
	opts := options.Find().
		SetSort(l.SortDoc()).
		SetSkip(int64(l.Skip())).
		SetLimit(int64(l.Limit))
	if len(l.Fields) > 0 {
		projection := bson.D{}
		for _, f := range l.Fields {
			projection = append(projection, bson.E{Key: f, Value: 1})
		}
		opts.SetProjection(projection)
	}
	return opts
}
