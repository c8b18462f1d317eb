// Package memory implements the repository interfaces in process. It backs
// the "memory" database driver and the package tests, and evaluates list
// queries with the same semantics as the Mongo filter documents.
package memory

import (
	"bytes"
	"cmp"
	"sort"
	"strings"
	"sync"
	"time"

	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// table is a concurrency-safe set of rows keyed by ObjectID.
type table[T any] struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]T
	id   func(*T) primitive.ObjectID
}

func newTable[T any](id func(*T) primitive.ObjectID) *table[T] {
	return &table[T]{rows: map[primitive.ObjectID]T{}, id: id}
}

// insert stores row unless unique reports a clash with an existing row.
func (t *table[T]) insert(row T, unique func(existing, row *T) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if unique != nil {
		for _, existing := range t.rows {
			if err := unique(&existing, &row); err != nil {
				return err
			}
		}
	}
	t.rows[t.id(&row)] = row
	return nil
}

func (t *table[T]) get(id primitive.ObjectID) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

// find returns the first row satisfying pred. Rows are visited in id order.
func (t *table[T]) find(pred func(*T) bool) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var found *T
	for _, row := range t.rows {
		if !pred(&row) {
			continue
		}
		if found == nil || bytes.Compare(t.idBytes(&row), t.idBytes(found)) < 0 {
			match := row
			found = &match
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (t *table[T]) idBytes(row *T) []byte {
	id := t.id(row)
	return id[:]
}

func (t *table[T]) count(pred func(*T) bool) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, row := range t.rows {
		if pred(&row) {
			n++
		}
	}
	return n
}

// update applies fn to the stored row; ErrNotFound when it does not exist.
func (t *table[T]) update(id primitive.ObjectID, fn func(*T)) error {
	if !t.apply(id, func(row *T) bool { fn(row); return true }) {
		return repository.ErrNotFound
	}
	return nil
}

// apply is a conditional write: fn reports whether it changed the row, and
// the change is kept only then. Returns false when missing or not applied.
func (t *table[T]) apply(id primitive.ObjectID, fn func(*T) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok || !fn(&row) {
		return false
	}
	t.rows[id] = row
	return true
}

func (t *table[T]) delete(id primitive.ObjectID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

type listEntry[T any] struct {
	row T
	doc bson.M
}

// list evaluates q over the rows: filter, sort (ties by _id), skip and limit.
func (t *table[T]) list(q query.List) ([]T, error) {
	t.mu.RLock()
	entries := make([]listEntry[T], 0, len(t.rows))
	for _, row := range t.rows {
		doc, err := toDoc(row)
		if err != nil {
			t.mu.RUnlock()
			return nil, err
		}
		if matches(doc, q.Conditions) {
			entries = append(entries, listEntry[T]{row: row, doc: doc})
		}
	}
	t.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i].doc, entries[j].doc, q.Sort)
	})

	skip := max(q.Skip(), 0)
	if skip >= len(entries) {
		return []T{}, nil
	}
	end := len(entries)
	if q.Limit > 0 && skip+q.Limit < end {
		end = skip + q.Limit
	}

	items := make([]T, 0, end-skip)
	for _, e := range entries[skip:end] {
		if len(q.Fields) == 0 {
			items = append(items, e.row)
			continue
		}
		projected, err := project[T](e.doc, q.Fields)
		if err != nil {
			return nil, err
		}
		items = append(items, projected)
	}
	return items, nil
}

func toDoc(row any) (bson.M, error) {
	raw, err := bson.Marshal(row)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// project keeps _id and the selected fields, like a Mongo projection.
func project[T any](doc bson.M, fields []string) (T, error) {
	var out T
	selected := bson.M{"_id": doc["_id"]}
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			selected[f] = v
		}
	}
	raw, err := bson.Marshal(selected)
	if err != nil {
		return out, err
	}
	err = bson.Unmarshal(raw, &out)
	return out, err
}

// lookup resolves a dotted path inside a decoded document.
func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case bson.M:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			v, ok := node.Map()[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func matches(doc bson.M, conds []query.Condition) bool {
	for _, c := range conds {
		if !matchCondition(doc, c) {
			return false
		}
	}
	return true
}

// matchCondition follows Mongo: a condition on an array holds when any element satisfies it.
func matchCondition(doc bson.M, c query.Condition) bool {
	v, ok := lookup(doc, c.Field)
	if !ok {
		return false
	}
	if arr, isArr := v.(primitive.A); isArr {
		for _, el := range arr {
			if test(el, c) {
				return true
			}
		}
		return false
	}
	return test(v, c)
}

func test(v any, c query.Condition) bool {
	r, ok := compare(v, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case query.OpEq:
		return r == 0
	case query.OpGt:
		return r > 0
	case query.OpGte:
		return r >= 0
	case query.OpLt:
		return r < 0
	case query.OpLte:
		return r <= 0
	}
	return false
}

func less(a, b bson.M, order []query.SortField) bool {
	for _, s := range order {
		av, _ := lookup(a, s.Field)
		bv, _ := lookup(b, s.Field)
		r, ok := compare(av, bv)
		if !ok || r == 0 {
			continue
		}
		if s.Desc {
			return r > 0
		}
		return r < 0
	}
	ai, _ := a["_id"].(primitive.ObjectID)
	bi, _ := b["_id"].(primitive.ObjectID)
	return bytes.Compare(ai[:], bi[:]) < 0
}

func normalize(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}

// compare orders two values of the same BSON kind. ok is false when the
// kinds differ, in which case no relational condition holds.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return cmp.Compare(x, y), ok
	case string:
		y, ok := b.(string)
		return strings.Compare(x, y), ok
	case time.Time:
		y, ok := b.(time.Time)
		return x.Compare(y), ok
	case primitive.ObjectID:
		y, ok := b.(primitive.ObjectID)
		return bytes.Compare(x[:], y[:]), ok
	case bool:
		y, ok := b.(bool)
		if !ok || x == y {
			return 0, ok
		}
		if !x {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}
