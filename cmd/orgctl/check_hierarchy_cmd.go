package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgtree/modules/org/services"
)

type checkHierarchyOutput struct {
	Command    string                    `json:"command"`
	DurationMS int64                     `json:"duration_ms"`
	Issues     []services.HierarchyIssue `json:"issues"`
}

func newCheckHierarchyCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "check-hierarchy",
		Short: "Report cycles, depth violations and missing labels records",
		Long: "Walks every live organization. Exits with code 2 when issues remain.\n" +
			"--repair creates the missing labels records; tree shape problems are only reported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			orgService := s.app.Service(services.OrganizationService{}).(*services.OrganizationService)

			start := time.Now()
			issues, err := orgService.CheckHierarchy(s.ctx)
			if err != nil {
				return withCode(exitDB, err)
			}
			if repair {
				issues, err = repairLabels(s, orgService, issues)
				if err != nil {
					return err
				}
			}

			if err := writeJSONLine(cmd.OutOrStdout(), checkHierarchyOutput{
				Command:    "check-hierarchy",
				DurationMS: time.Since(start).Milliseconds(),
				Issues:     issues,
			}); err != nil {
				return err
			}
			if len(issues) > 0 {
				return withCode(exitValidation, fmt.Errorf("%d hierarchy issue(s) found", len(issues)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "Create missing labels records")
	return cmd
}

// repairLabels fixes missing_labels issues and returns the ones left.
func repairLabels(s *session, orgService *services.OrganizationService, issues []services.HierarchyIssue) ([]services.HierarchyIssue, error) {
	left := make([]services.HierarchyIssue, 0, len(issues))
	for _, issue := range issues {
		if issue.Kind != services.IssueMissingLabels {
			left = append(left, issue)
			continue
		}
		if _, err := orgService.EnsureLabels(s.ctx, issue.OrganizationID); err != nil {
			return nil, withCode(exitDB, fmt.Errorf("ensure labels of %s: %w", issue.Slug, err))
		}
	}
	return left, nil
}
