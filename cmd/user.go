package cmd

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/edumeet/edumeet/internal/account"
	"github.com/edumeet/edumeet/internal/ui"
	"github.com/edumeet/edumeet/internal/ui/theme"
)

func newUserCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var id, name, email, role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create or update an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := account.ParseRole(strings.ToLower(role))
			if err != nil {
				return err
			}
			s, err := a.db()
			if err != nil {
				return err
			}
			if id == "" {
				id = uuid.NewString()
			}
			u := &account.User{ID: id, Name: name, Email: email, Role: r}
			if existing, err := s.Users().Get(cmd.Context(), id); err == nil {
				u.EnrolledCourseIDs = existing.EnrolledCourseIDs
				u.CreatedAt = existing.CreatedAt
			}
			if err := s.Users().Save(cmd.Context(), u); err != nil {
				return err
			}
			printOut(cmd, ui.User(u))
			return nil
		},
	}
	add.Flags().StringVar(&id, "id", "", "Account id (default: a new uuid)")
	add.Flags().StringVar(&name, "name", "", "Display name")
	add.Flags().StringVar(&email, "email", "", "Email address")
	add.Flags().StringVar(&role, "role", string(account.RoleStudent), "Role: student, tutor or admin")
	_ = add.MarkFlagRequired("name")

	show := &cobra.Command{
		Use:   "show [id]",
		Short: "Show an account (default: the acting user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, u, err := a.user(cmd)
				if err != nil {
					return err
				}
				printOut(cmd, ui.User(u))
				return nil
			}
			s, err := a.db()
			if err != nil {
				return err
			}
			u, err := s.Users().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printOut(cmd, ui.User(u))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.staff(cmd)
			if err != nil {
				return err
			}
			users, err := s.Users().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				printOut(cmd, theme.Hint.Render("No accounts."))
				return nil
			}
			for _, u := range users {
				printOut(cmd, theme.Current.Render(u.ID)+"  "+theme.Body.Render(u.Name)+theme.Subtitle.Render("  "+string(u.Role)))
			}
			return nil
		},
	}

	c.AddCommand(add, show, list)
	return c
}
