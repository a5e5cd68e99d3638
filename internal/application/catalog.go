package application

import (
	"context"
	"fmt"
)

// CatalogRepository reads the skills catalog configuration record. found is false when the
// record does not exist; a present record with an absent or malformed list yields nil skills.
type CatalogRepository interface {
	SkillsCatalog(ctx context.Context) (skills []string, found bool, err error)
}

var defaultSkillCatalog = []string{
	"JavaScript",
	"TypeScript",
	"Node.js",
	"React",
	"Python",
	"AWS",
	"Azure",
	"GCP",
	"DevOps",
	"Kubernetes",
	"n8n",
	"QA",
	"Data Engineering",
}

// DefaultSkillCatalog returns the built-in list used when the catalog record is absent.
func DefaultSkillCatalog() []string {
	return append([]string(nil), defaultSkillCatalog...)
}

// CatalogReader exposes the read-only skill catalog.
type CatalogReader struct {
	catalog CatalogRepository
	opts    serviceOptions
}

// NewCatalogReader wires dependencies for the catalog reader.
func NewCatalogReader(catalog CatalogRepository, opts ...Option) *CatalogReader {
	return &CatalogReader{catalog: catalog, opts: newServiceOptions(opts)}
}

// GetCatalog never fails: an absent record degrades to the default list and a backend
// failure degrades to an empty list.
func (r *CatalogReader) GetCatalog(ctx context.Context) []string {
	if r == nil || r.catalog == nil {
		return DefaultSkillCatalog()
	}

	logger := serviceLogger(ctx, r.opts.logger, "CatalogReader", "GetCatalog")
	skills, found, err := r.catalog.SkillsCatalog(ctx)
	if err != nil {
		err = storeUnavailable(fmt.Errorf("read skills catalog: %w", err))
		r.opts.metrics.StoreError("catalog")
		logger.ErrorContext(ctx, "error fetching skills catalog", "error", err, "error_kind", ErrorKind(err))
		return []string{}
	}
	if !found {
		logger.WarnContext(ctx, "skills catalog record not found, using default skills")
		return DefaultSkillCatalog()
	}
	if skills == nil {
		return []string{}
	}
	return append([]string(nil), skills...)
}
