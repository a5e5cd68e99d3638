package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/johanWP/DevSkillTracker/internal/adapters/store"
	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/persistence"
)

func catalogCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or replace the skills catalog",
	}

	withCatalog := func(cmd *cobra.Command, fn func(*persistence.Catalog, backend) error) error {
		cfg, logger, err := load(cmd)
		if err != nil {
			return err
		}
		storage, _, err := openBackend(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer storage.Close()
		return fn(persistence.NewCatalog(storage), storage)
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the catalog the dashboard offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, func(catalog *persistence.Catalog, storage backend) error {
				_, found, err := catalog.SkillsCatalog(cmd.Context())
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintln(cmd.ErrOrStderr(), "no catalog stored; showing defaults")
				}
				reader := application.NewCatalogReader(store.NewCatalogRepository(storage))
				for _, skill := range reader.GetCatalog(cmd.Context()) {
					fmt.Fprintln(cmd.OutOrStdout(), skill)
				}
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <skill>...",
		Short: "Replace the catalog with the given skills",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skills := cleanSkills(args)
			if len(skills) == 0 {
				return errors.New("at least one non-blank skill is required")
			}
			return withCatalog(cmd, func(catalog *persistence.Catalog, _ backend) error {
				if err := catalog.SetSkillsCatalog(cmd.Context(), skills); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %d skill(s)\n", len(skills))
				return nil
			})
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Replace the catalog with the skills listed in a YAML file",
		Long: `Replace the catalog with the skills listed in a YAML file. The file is either a
plain sequence of names or a mapping with a "skills" sequence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skills, err := readCatalogFile(args[0])
			if err != nil {
				return err
			}
			return withCatalog(cmd, func(catalog *persistence.Catalog, _ backend) error {
				if err := catalog.SetSkillsCatalog(cmd.Context(), skills); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d skill(s) from %s\n", len(skills), args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(show, set, importCmd)
	return cmd
}

type catalogFile struct {
	Skills []string `yaml:"skills"`
}

func readCatalogFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	skills, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return skills, nil
}

func parseCatalog(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("catalog file is empty")
	}

	var raw []string
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raw); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var file catalogFile
		if err := root.Decode(&file); err != nil {
			return nil, err
		}
		raw = file.Skills
	default:
		return nil, fmt.Errorf("expected a sequence or a mapping at line %d", root.Line)
	}

	skills := cleanSkills(raw)
	if len(skills) == 0 {
		return nil, errors.New("catalog file lists no skills")
	}
	return skills, nil
}

// cleanSkills trims names and drops blanks and exact duplicates, keeping order.
func cleanSkills(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	skills := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		skills = append(skills, name)
	}
	return skills
}
