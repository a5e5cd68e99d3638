package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection and key names shared by every store implementation.
const (
	CollectionDevelopers = "devs"
	CollectionConfig     = "config"
	KeySkillsCatalog     = "skillsCatalog"
)

// Developers is the typed view over the devs collection.
type Developers struct {
	store DocumentStore
}

// NewDevelopers wraps store.
func NewDevelopers(store DocumentStore) *Developers {
	return &Developers{store: store}
}

// List decodes every developer document. Order is whatever the store yields.
func (d *Developers) List(ctx context.Context) ([]Developer, error) {
	docs, err := d.store.ListAll(ctx, CollectionDevelopers)
	if err != nil {
		return nil, err
	}
	developers := make([]Developer, 0, len(docs))
	for _, doc := range docs {
		developer, err := decodeDeveloper(doc)
		if err != nil {
			return nil, err
		}
		developers = append(developers, developer)
	}
	return developers, nil
}

// Get returns the developer stored under key or ErrNotFound.
func (d *Developers) Get(ctx context.Context, key string) (Developer, error) {
	doc, err := d.store.GetByKey(ctx, CollectionDevelopers, key)
	if err != nil {
		return Developer{}, err
	}
	return decodeDeveloper(doc)
}

// Put upserts developer under its ID.
func (d *Developers) Put(ctx context.Context, developer Developer) error {
	data, err := json.Marshal(developer)
	if err != nil {
		return fmt.Errorf("encode developer %s: %w", developer.ID, err)
	}
	return d.store.SetByKey(ctx, CollectionDevelopers, developer.ID, data)
}

// Create writes developer under its ID unless the key exists, returning ErrAlreadyExists.
func (d *Developers) Create(ctx context.Context, developer Developer) error {
	data, err := json.Marshal(developer)
	if err != nil {
		return fmt.Errorf("encode developer %s: %w", developer.ID, err)
	}
	return d.store.CreateByKey(ctx, CollectionDevelopers, developer.ID, data)
}

func decodeDeveloper(doc Document) (Developer, error) {
	var developer Developer
	if err := json.Unmarshal(doc.Data, &developer); err != nil {
		return Developer{}, fmt.Errorf("%w: decode developer %s: %v", ErrBackendUnavailable, doc.Key, err)
	}
	if developer.ID == "" {
		developer.ID = doc.Key
	}
	return developer, nil
}

// Catalog is the typed view over the config/skillsCatalog record.
type Catalog struct {
	store DocumentStore
}

// NewCatalog wraps store.
func NewCatalog(store DocumentStore) *Catalog {
	return &Catalog{store: store}
}

// SkillsCatalog returns the skills list. found is false when the record does not exist;
// an absent or malformed skills field yields nil skills with found true.
func (c *Catalog) SkillsCatalog(ctx context.Context) ([]string, bool, error) {
	doc, err := c.store.GetByKey(ctx, CollectionConfig, KeySkillsCatalog)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return decodeSkills(doc.Data), true, nil
}

// SetSkillsCatalog replaces the skills list.
func (c *Catalog) SetSkillsCatalog(ctx context.Context, skills []string) error {
	if skills == nil {
		skills = []string{}
	}
	data, err := json.Marshal(struct {
		Skills []string `json:"skills"`
	}{Skills: skills})
	if err != nil {
		return fmt.Errorf("encode skills catalog: %w", err)
	}
	return c.store.SetByKey(ctx, CollectionConfig, KeySkillsCatalog, data)
}

func decodeSkills(data json.RawMessage) []string {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}
	raw, ok := record["skills"]
	if !ok {
		return nil
	}
	var skills []string
	if err := json.Unmarshal(raw, &skills); err != nil {
		return nil
	}
	return skills
}
