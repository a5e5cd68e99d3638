// Package store adapts the document persistence layer to the repository contracts of
// the application layer.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/persistence"
)

// DeveloperRepository serves application.DeveloperRepository from the devs collection.
type DeveloperRepository struct {
	developers *persistence.Developers
}

func NewDeveloperRepository(docs persistence.DocumentStore) *DeveloperRepository {
	return &DeveloperRepository{developers: persistence.NewDevelopers(docs)}
}

func (r *DeveloperRepository) ListDevelopers(ctx context.Context) ([]application.Developer, error) {
	models, err := r.developers.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	developers := make([]application.Developer, 0, len(models))
	for _, model := range models {
		developers = append(developers, toApplicationDeveloper(model))
	}
	return developers, nil
}

func (r *DeveloperRepository) GetDeveloper(ctx context.Context, id string) (application.Developer, error) {
	model, err := r.developers.Get(ctx, id)
	if err != nil {
		return application.Developer{}, mapError(err)
	}
	return toApplicationDeveloper(model), nil
}

func (r *DeveloperRepository) PutDeveloper(ctx context.Context, developer application.Developer) error {
	return mapError(r.developers.Put(ctx, toPersistenceDeveloper(developer)))
}

func (r *DeveloperRepository) InsertDeveloper(ctx context.Context, developer application.Developer) error {
	return mapError(r.developers.Create(ctx, toPersistenceDeveloper(developer)))
}

// CatalogRepository serves application.CatalogRepository from config/skillsCatalog.
type CatalogRepository struct {
	catalog *persistence.Catalog
}

func NewCatalogRepository(docs persistence.DocumentStore) *CatalogRepository {
	return &CatalogRepository{catalog: persistence.NewCatalog(docs)}
}

func (r *CatalogRepository) SkillsCatalog(ctx context.Context) ([]string, bool, error) {
	skills, found, err := r.catalog.SkillsCatalog(ctx)
	if err != nil {
		return nil, false, mapError(err)
	}
	return skills, found, nil
}

// mapError translates persistence sentinels into their application counterparts.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrAlreadyExists):
		return application.ErrAlreadyExists
	default:
		return fmt.Errorf("%w: %w", application.ErrStoreUnavailable, err)
	}
}

func toApplicationDeveloper(model persistence.Developer) application.Developer {
	var skills []application.Skill
	if len(model.Skills) > 0 {
		skills = make([]application.Skill, 0, len(model.Skills))
		for _, skill := range model.Skills {
			skills = append(skills, application.Skill{Name: skill.Name, Proficiency: skill.Proficiency})
		}
	}
	return application.Developer{
		ID:         model.ID,
		Name:       model.Name,
		EmployeeID: model.EmployeeID,
		Email:      model.Email,
		Location:   model.Location,
		Role:       model.Role,
		Project:    model.Project,
		Active:     model.Active,
		Skills:     skills,
	}
}

func toPersistenceDeveloper(developer application.Developer) persistence.Developer {
	skills := make([]persistence.Skill, 0, len(developer.Skills))
	for _, skill := range developer.Skills {
		skills = append(skills, persistence.Skill{Name: skill.Name, Proficiency: skill.Proficiency})
	}
	return persistence.Developer{
		ID:         developer.ID,
		Name:       developer.Name,
		EmployeeID: developer.EmployeeID,
		Email:      developer.Email,
		Location:   developer.Location,
		Role:       developer.Role,
		Project:    developer.Project,
		Active:     developer.Active,
		Skills:     skills,
	}
}
