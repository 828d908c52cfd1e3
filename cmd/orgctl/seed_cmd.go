package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	orgservices "github.com/iota-uz/orgtree/modules/org/services"
	"github.com/iota-uz/orgtree/pkg/composables"
)

// seedFile is the YAML layout accepted by "orgctl seed":
//
//	organizations:
//	  - name: Springfield Academy
//	    abbreviation: SA
//	    max_depth: 2
//	    labels:
//	      attendee_label: Student
//	    children:
//	      - name: North Campus
type seedFile struct {
	Organizations []seedNode `yaml:"organizations"`
}

type seedNode struct {
	Name         string            `yaml:"name"`
	Abbreviation string            `yaml:"abbreviation"`
	Slug         string            `yaml:"slug"`
	Description  string            `yaml:"description"`
	Image        string            `yaml:"image"`
	MaxDepth     uint              `yaml:"max_depth"`
	Inactive     bool              `yaml:"inactive"`
	Labels       map[string]string `yaml:"labels"`
	Children     []seedNode        `yaml:"children"`
}

type seedResult struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Path     string `json:"path"`
}

type seedSummary struct {
	Status        string `json:"status"`
	Organizations int    `json:"organizations"`
	Applied       bool   `json:"applied"`
}

func parseSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f seedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("seed file is empty")
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// validateSeed checks what can be checked without a database and returns
// the number of organizations the file describes.
func validateSeed(f *seedFile) (int, error) {
	if len(f.Organizations) == 0 {
		return 0, fmt.Errorf("seed file has no organizations")
	}
	var walk func(nodes []seedNode, path string) (int, error)
	walk = func(nodes []seedNode, path string) (int, error) {
		n := 0
		seen := make(map[string]struct{}, len(nodes))
		for i, node := range nodes {
			name := strings.TrimSpace(node.Name)
			where := fmt.Sprintf("%s[%d]", path, i)
			if name == "" {
				return 0, fmt.Errorf("%s: name is required", where)
			}
			if _, dup := seen[name]; dup {
				return 0, fmt.Errorf("%s: duplicate sibling name %q", where, name)
			}
			seen[name] = struct{}{}
			for k := range node.Labels {
				if !labels.IsKnown(k) {
					return 0, fmt.Errorf("%s: unknown label key %q", where, k)
				}
			}
			sub, err := walk(node.Children, where+".children")
			if err != nil {
				return 0, err
			}
			n += 1 + sub
		}
		return n, nil
	}
	return walk(f.Organizations, "organizations")
}

func newSeedCmd() *cobra.Command {
	var (
		file  string
		apply bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an organization tree from a YAML file",
		Long:  "Validates the file and, with --apply, creates every organization and its labels in one transaction.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fh, err := os.Open(file)
			if err != nil {
				return withCode(exitUsage, err)
			}
			defer fh.Close()

			f, err := parseSeed(fh)
			if err != nil {
				return withCode(exitValidation, err)
			}
			total, err := validateSeed(f)
			if err != nil {
				return withCode(exitValidation, err)
			}
			if !apply {
				return writeJSONLine(cmd.OutOrStdout(), seedSummary{Status: "dry_run", Organizations: total})
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			orgService := s.app.Service(orgservices.OrganizationService{}).(*orgservices.OrganizationService)
			var results []seedResult
			err = composables.InTx(s.ctx, func(txCtx context.Context) error {
				var err error
				results, err = applySeed(txCtx, orgService, f.Organizations, nil, "")
				return err
			})
			if err != nil {
				return withCode(exitValidation, err)
			}
			for _, r := range results {
				if err := writeJSONLine(cmd.OutOrStdout(), r); err != nil {
					return err
				}
			}
			return writeJSONLine(cmd.OutOrStdout(), seedSummary{Status: "ok", Organizations: len(results), Applied: true})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML seed file (required)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Write to the database (default is dry-run)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func applySeed(
	ctx context.Context,
	orgService *orgservices.OrganizationService,
	nodes []seedNode,
	parentID *int64,
	parentPath string,
) ([]seedResult, error) {
	var out []seedResult
	for _, node := range nodes {
		active := !node.Inactive
		created, err := orgService.Create(ctx, orgservices.CreateOrganizationInput{
			Name:         node.Name,
			Abbreviation: node.Abbreviation,
			Description:  node.Description,
			Slug:         node.Slug,
			Image:        node.Image,
			ParentID:     parentID,
			MaxDepth:     node.MaxDepth,
			IsActive:     &active,
		})
		path := strings.TrimPrefix(parentPath+"/"+node.Name, "/")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(node.Labels) > 0 {
			if _, err := orgService.UpdateLabels(ctx, created.ID(), node.Labels); err != nil {
				return nil, fmt.Errorf("%s: labels: %w", path, err)
			}
		}
		out = append(out, seedResult{
			ID:       created.ID(),
			Slug:     created.Slug().String(),
			ParentID: parentID,
			Path:     path,
		})

		id := created.ID()
		children, err := applySeed(ctx, orgService, node.Children, &id, path)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
	}
	return out, nil
}
