package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore is a minimal DocumentStore for exercising the typed collections.
type mapStore struct {
	docs map[string]Document
	err  error
}

func newMapStore() *mapStore {
	return &mapStore{docs: make(map[string]Document)}
}

func (s *mapStore) ListAll(_ context.Context, collection string) ([]Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Document
	for _, doc := range s.docs {
		if doc.Collection == collection {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *mapStore) GetByKey(_ context.Context, collection, key string) (Document, error) {
	if s.err != nil {
		return Document{}, s.err
	}
	doc, ok := s.docs[collection+"/"+key]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (s *mapStore) SetByKey(_ context.Context, collection, key string, data json.RawMessage) error {
	if s.err != nil {
		return s.err
	}
	s.docs[collection+"/"+key] = Document{Collection: collection, Key: key, Data: data}
	return nil
}

func (s *mapStore) CreateByKey(ctx context.Context, collection, key string, data json.RawMessage) error {
	if _, ok := s.docs[collection+"/"+key]; ok {
		return ErrAlreadyExists
	}
	return s.SetByKey(ctx, collection, key, data)
}

func TestDevelopers_RoundTripUsesCamelCase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMapStore()
	developers := NewDevelopers(store)

	developer := Developer{
		ID:         "john.doe@test.com",
		Name:       "John Doe",
		EmployeeID: "E-1",
		Email:      "john.doe@test.com",
		Active:     true,
		Skills:     []Skill{{Name: "React", Proficiency: 4}},
	}
	require.NoError(t, developers.Put(ctx, developer))

	raw := store.docs["devs/john.doe@test.com"].Data
	assert.Contains(t, string(raw), `"employeeId":"E-1"`)

	got, err := developers.Get(ctx, "john.doe@test.com")
	require.NoError(t, err)
	assert.Equal(t, developer, got)

	err = developers.Create(ctx, developer)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	all, err := developers.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Developer{developer}, all)
}

func TestDevelopers_DecodeFailure(t *testing.T) {
	t.Parallel()

	store := newMapStore()
	store.docs["devs/broken"] = Document{Collection: CollectionDevelopers, Key: "broken", Data: json.RawMessage(`{"name": 5}`)}

	_, err := NewDevelopers(store).List(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestCatalog_SkillsCatalog(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		data   string
		absent bool
		want   []string
	}{
		{name: "absent record", absent: true},
		{name: "skills present", data: `{"skills":["Go","Rust"]}`, want: []string{"Go", "Rust"}},
		{name: "skills field missing", data: `{"other":true}`},
		{name: "skills malformed", data: `{"skills":"Go"}`},
		{name: "record malformed", data: `[1,2]`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := newMapStore()
			if !tc.absent {
				store.docs["config/skillsCatalog"] = Document{Collection: CollectionConfig, Key: KeySkillsCatalog, Data: json.RawMessage(tc.data)}
			}
			skills, found, err := NewCatalog(store).SkillsCatalog(context.Background())
			require.NoError(t, err)
			assert.Equal(t, !tc.absent, found)
			assert.Equal(t, tc.want, skills)
		})
	}
}

func TestCatalog_SetAndBackendFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMapStore()
	catalog := NewCatalog(store)

	require.NoError(t, catalog.SetSkillsCatalog(ctx, []string{"Go"}))
	skills, found, err := catalog.SkillsCatalog(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Go"}, skills)

	store.err = errors.New("offline")
	_, _, err = catalog.SkillsCatalog(ctx)
	assert.Error(t, err)
}
