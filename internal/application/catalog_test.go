package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubCatalog struct {
	skills []string
	found  bool
	err    error
}

func (s stubCatalog) SkillsCatalog(context.Context) ([]string, bool, error) {
	return s.skills, s.found, s.err
}

func TestCatalogReader_GetCatalog(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		catalog stubCatalog
		want    []string
	}{
		{
			name:    "absent record falls back to defaults",
			catalog: stubCatalog{found: false},
			want: []string{
				"JavaScript", "TypeScript", "Node.js", "React", "Python", "AWS", "Azure",
				"GCP", "DevOps", "Kubernetes", "n8n", "QA", "Data Engineering",
			},
		},
		{
			name:    "present record returns its skills",
			catalog: stubCatalog{found: true, skills: []string{"Go", "Rust"}},
			want:    []string{"Go", "Rust"},
		},
		{
			name:    "present record without skills yields empty list",
			catalog: stubCatalog{found: true},
			want:    []string{},
		},
		{
			name:    "backend failure yields empty list",
			catalog: stubCatalog{err: errors.New("permission denied")},
			want:    []string{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NewCatalogReader(tc.catalog).GetCatalog(context.Background())
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDefaultSkillCatalog_ReturnsCopy(t *testing.T) {
	t.Parallel()

	first := DefaultSkillCatalog()
	first[0] = "mutated"
	assert.Equal(t, "JavaScript", DefaultSkillCatalog()[0])
	assert.Len(t, DefaultSkillCatalog(), 13)
}
