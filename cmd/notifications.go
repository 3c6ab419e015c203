package cmd

import (
	"github.com/spf13/cobra"

	"github.com/edumeet/edumeet/internal/ui"
)

func newNotificationsCmd(a *app) *cobra.Command {
	var unread, markRead bool
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show your notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, u, err := a.user(cmd)
			if err != nil {
				return err
			}
			ns, err := s.Notifications().ListByUser(cmd.Context(), u.ID, unread)
			if err != nil {
				return err
			}
			printOut(cmd, ui.Notifications(ns))
			if !markRead {
				return nil
			}
			for _, n := range ns {
				if n.Read {
					continue
				}
				if err := s.Notifications().MarkRead(cmd.Context(), n.ID); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "Mark the listed notifications as read")
	return cmd
}
