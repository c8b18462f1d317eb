package query

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"alcyxob/fitness-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var workoutOpts = Options{Fields: []string{"date", "type", "duration", "name", "userId", "createdAt"}}

func mustParse(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestBuild_SuffixOperators(t *testing.T) {
	params := mustParse(t, "date[gte]=2024-01-01&date[lt]=2024-02-01&duration[gt]=30&duration[lte]=90")
	list, err := Build(params, nil, workoutOpts)
	require.NoError(t, err)

	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.ElementsMatch(t, []Condition{
		{Field: "date", Op: OpGte, Value: jan},
		{Field: "date", Op: OpLt, Value: feb},
		{Field: "duration", Op: OpGt, Value: int64(30)},
		{Field: "duration", Op: OpLte, Value: int64(90)},
	}, list.Conditions)
}

func TestBuild_StripsMetaParams(t *testing.T) {
	owner := primitive.NewObjectID()
	params := mustParse(t, "page=2&sort=-duration&limit=5&fields=name,date&userId="+owner.Hex()+"&type=cardio")
	list, err := Build(params, &Scope{Field: "userId", Owner: owner}, workoutOpts)
	require.NoError(t, err)

	require.Len(t, list.Conditions, 2)
	assert.Equal(t, Condition{Field: "userId", Op: OpEq, Value: owner}, list.Conditions[0])
	assert.Equal(t, Condition{Field: "type", Op: OpEq, Value: "cardio"}, list.Conditions[1])
	for _, c := range list.Conditions {
		assert.NotContains(t, []string{"page", "sort", "limit", "fields"}, c.Field)
	}
	assert.Equal(t, []string{"name", "date"}, list.Fields)
}

func TestBuild_ScopeCannotBeOverridden(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	params := url.Values{"userId[gte]": {other.Hex()}}
	list, err := Build(params, &Scope{Field: "userId", Owner: owner}, workoutOpts)
	require.NoError(t, err)
	assert.Equal(t, []Condition{{Field: "userId", Op: OpEq, Value: owner}}, list.Conditions)
}

func TestBuild_SortAndDefaults(t *testing.T) {
	list, err := Build(url.Values{}, nil, workoutOpts)
	require.NoError(t, err)
	assert.Equal(t, []SortField{{Field: "date", Desc: true}}, list.Sort)
	assert.Equal(t, DefaultPage, list.Page)
	assert.Equal(t, DefaultLimit, list.Limit)
	assert.Equal(t, 0, list.Skip())

	list, err = Build(mustParse(t, "sort=type,-duration,+name"), nil, workoutOpts)
	require.NoError(t, err)
	assert.Equal(t, []SortField{{Field: "type"}, {Field: "duration", Desc: true}, {Field: "name"}}, list.Sort)

	list, err = Build(url.Values{}, nil, Options{Fields: []string{"createdAt"}, DefaultSort: "-createdAt"})
	require.NoError(t, err)
	assert.Equal(t, []SortField{{Field: "createdAt", Desc: true}}, list.Sort)
}

func TestBuild_Pagination(t *testing.T) {
	cases := []struct {
		raw      string
		page     int
		limit    int
		wantSkip int
	}{
		{"page=2&limit=5", 2, 5, 5},
		{"page=abc&limit=xyz", 1, 10, 0},
		{"page=0&limit=-3", 1, 10, 0},
		{"page=3", 3, 10, 20},
		{"limit=1000", 1, MaxLimit, 0},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			list, err := Build(mustParse(t, tc.raw), nil, workoutOpts)
			require.NoError(t, err)
			assert.Equal(t, tc.page, list.Page)
			assert.Equal(t, tc.limit, list.Limit)
			assert.Equal(t, tc.wantSkip, list.Skip())
		})
	}
}

func TestBuild_InvalidQuery(t *testing.T) {
	cases := map[string]url.Values{
		"unknown operator":   {"date[ne]": {"2024-01-01"}},
		"unknown field":      {"passwordHash": {"x"}},
		"operator injection": {"$where": {"1"}},
		"broken bracket":     {"date[gte": {"2024-01-01"}},
		"repeated key":       {"type": {"a", "b"}},
		"empty value":        {"type": {""}},
		"bad sort field":     {"sort": {"-secret"}},
		"bad projection":     {"fields": {"passwordHash"}},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(params, nil, workoutOpts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestTargetOwner(t *testing.T) {
	caller := primitive.NewObjectID()
	other := primitive.NewObjectID()

	got, err := TargetOwner(url.Values{}, caller)
	require.NoError(t, err)
	assert.Equal(t, caller, got)

	got, err = TargetOwner(url.Values{"userId": {other.Hex()}}, caller)
	require.NoError(t, err)
	assert.Equal(t, other, got)

	_, err = TargetOwner(url.Values{"userId": {"nope"}}, caller)
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
}

func TestCoerce(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, id, coerce(id.Hex()))
	assert.Equal(t, true, coerce("true"))
	assert.Equal(t, int64(42), coerce("42"))
	assert.Equal(t, 2.5, coerce("2.5"))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), coerce("2024-03-05"))
	assert.Equal(t, "cardio", coerce("cardio"))
}

func TestCoerce_NonFiniteStaysString(t *testing.T) {
	for _, raw := range []string{"inf", "+Inf", "-inf", "Infinity", "-INFINITY", "NaN", "nan"} {
		assert.Equal(t, raw, coerce(raw), raw)
	}
	assert.Equal(t, "1e999", coerce("1e999"))
	assert.Equal(t, -0.5, coerce("-0.5"))

	list, err := Build(mustParse(t, "type=Infinity"), nil, workoutOpts)
	require.NoError(t, err)
	assert.Equal(t, []Condition{{Field: "type", Op: OpEq, Value: "Infinity"}}, list.Conditions)
}

func TestList_Filter(t *testing.T) {
	owner := primitive.NewObjectID()
	list := List{Conditions: []Condition{
		{Field: "userId", Op: OpEq, Value: owner},
		{Field: "date", Op: OpGte, Value: "a"},
		{Field: "date", Op: OpLte, Value: "b"},
		{Field: "type", Op: OpEq, Value: "run"},
	}}
	assert.Equal(t, bson.D{
		{Key: "userId", Value: owner},
		{Key: "date", Value: bson.D{{Key: "$gte", Value: "a"}, {Key: "$lte", Value: "b"}}},
		{Key: "type", Value: "run"},
	}, list.Filter())

	mixed := List{Conditions: []Condition{
		{Field: "duration", Op: OpEq, Value: int64(30)},
		{Field: "duration", Op: OpLt, Value: int64(60)},
	}}
	assert.Equal(t, bson.D{
		{Key: "duration", Value: bson.D{{Key: "$eq", Value: int64(30)}, {Key: "$lt", Value: int64(60)}}},
	}, mixed.Filter())
}

func TestList_FindOptions(t *testing.T) {
	list := List{Sort: []SortField{{Field: "date", Desc: true}}, Page: 2, Limit: 5, Fields: []string{"name"}}
	opts := list.FindOptions()
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(5), *opts.Skip)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "date", Value: -1}}, opts.Sort)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, opts.Projection)
}
