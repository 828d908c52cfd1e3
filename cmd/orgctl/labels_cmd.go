package main

import (
	"fmt"

	"github.com/spf13/cobra"

	coreservices "github.com/iota-uz/orgtree/modules/core/services"
	orgservices "github.com/iota-uz/orgtree/modules/org/services"
)

func newLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Inspect and edit organization labels",
	}
	cmd.AddCommand(newLabelsShowCmd())
	cmd.AddCommand(newLabelsSetCmd())
	return cmd
}

func newLabelsShowCmd() *cobra.Command {
	var (
		userID uint
		org    string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored labels of an organization or the mapping a user resolves",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (userID == 0) == (org == "") {
				return withCode(exitUsage, fmt.Errorf("exactly one of --user or --org is required"))
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if userID != 0 {
				users := s.app.Service(coreservices.UserService{}).(*coreservices.UserService)
				labelService := s.app.Service(orgservices.LabelService{}).(*orgservices.LabelService)
				u, err := users.GetByID(s.ctx, userID)
				if err != nil {
					return withCode(exitDB, err)
				}
				m, err := labelService.ResolveLabels(s.ctx, u)
				if err != nil {
					return withCode(exitDB, err)
				}
				return writeJSONLine(cmd.OutOrStdout(), m)
			}

			orgService := s.app.Service(orgservices.OrganizationService{}).(*orgservices.OrganizationService)
			o, err := orgService.GetByKey(s.ctx, org)
			if err != nil {
				return withCode(exitDB, err)
			}
			l, err := orgService.Labels(s.ctx, o.ID())
			if err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), l.Values())
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "User id")
	cmd.Flags().StringVar(&org, "org", "", "Organization id or slug")
	return cmd
}

func newLabelsSetCmd() *cobra.Command {
	var (
		org    string
		values map[string]string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update label slots, e.g. --value attendee_label=Student",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(values) == 0 {
				return withCode(exitUsage, fmt.Errorf("at least one --value is required"))
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			orgService := s.app.Service(orgservices.OrganizationService{}).(*orgservices.OrganizationService)
			o, err := orgService.GetByKey(s.ctx, org)
			if err != nil {
				return withCode(exitDB, err)
			}
			l, err := orgService.UpdateLabels(s.ctx, o.ID(), values)
			if err != nil {
				return withCode(exitValidation, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), l.Values())
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "Organization id or slug (required)")
	cmd.Flags().StringToStringVar(&values, "value", nil, "Slot assignment key=value, repeatable")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
