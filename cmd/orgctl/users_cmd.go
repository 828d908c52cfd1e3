package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	coreservices "github.com/iota-uz/orgtree/modules/core/services"
	"github.com/iota-uz/orgtree/modules/org/permissions"
)

type userOutput struct {
	ID             uint     `json:"id"`
	Email          string   `json:"email"`
	Profile        string   `json:"profile"`
	OrganizationID *int64   `json:"organization_id,omitempty"`
	Permissions    []string `json:"permissions"`
}

func toUserOutput(u user.User) userOutput {
	out := userOutput{
		ID:          u.ID(),
		Email:       u.Email(),
		Profile:     u.Profile().Kind().String(),
		Permissions: u.Permissions(),
	}
	if id, ok := u.Profile().OrganizationID(); ok {
		out.OrganizationID = &id
	}
	return out
}

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users and their organization permissions",
	}
	cmd.AddCommand(newUsersCreateCmd())
	cmd.AddCommand(newUsersGrantCmd())
	return cmd
}

// profileFromFlags accepts at most one membership.
func profileFromFlags(attendee, leader, faculty int64) (user.Profile, error) {
	set := 0
	for _, v := range []int64{attendee, leader, faculty} {
		if v != 0 {
			set++
		}
	}
	if set > 1 {
		return user.Profile{}, fmt.Errorf("only one of --attendee-of, --leader-of, --faculty-of may be set")
	}
	switch {
	case attendee != 0:
		return user.AttendeeProfile(attendee), nil
	case leader != 0:
		return user.LeaderProfile(leader), nil
	case faculty != 0:
		return user.FacultyProfile(faculty), nil
	default:
		return user.NoProfile(), nil
	}
}

// expandPermissions resolves the "organization:*" shorthand to every
// organization permission.
func expandPermissions(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == string(permissions.ResourceOrganization)+":*" {
			for _, p := range permissions.Permissions {
				out = append(out, p.Name)
			}
			continue
		}
		out = append(out, n)
	}
	return out
}

func newUsersCreateCmd() *cobra.Command {
	var (
		email, firstName, lastName string
		attendee, leader, faculty  int64
		grants                     []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with an optional organization membership",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := profileFromFlags(attendee, leader, faculty)
			if err != nil {
				return withCode(exitUsage, err)
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			users := s.app.Service(coreservices.UserService{}).(*coreservices.UserService)
			u, err := users.Create(s.ctx, user.New(
				email,
				user.WithName(firstName, lastName),
				user.WithProfile(profile),
				user.WithPermissions(expandPermissions(grants)...),
			))
			if err != nil {
				return withCode(exitValidation, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), toUserOutput(u))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().Int64Var(&attendee, "attendee-of", 0, "Organization id the user attends")
	cmd.Flags().Int64Var(&leader, "leader-of", 0, "Organization id the user leads")
	cmd.Flags().Int64Var(&faculty, "faculty-of", 0, "Organization id the user teaches at")
	cmd.Flags().StringSliceVar(&grants, "grant", nil, "Permission codename, or organization:* for all")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUsersGrantCmd() *cobra.Command {
	var (
		userID uint
		grants []string
	)
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Replace the permissions of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			users := s.app.Service(coreservices.UserService{}).(*coreservices.UserService)
			u, err := users.GrantPermissions(s.ctx, userID, expandPermissions(grants))
			if err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), toUserOutput(u))
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "User id (required)")
	cmd.Flags().StringSliceVar(&grants, "grant", nil, "Permission codename, or organization:* for all")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
