package cmd

import (
	"github.com/spf13/cobra"

	"github.com/edumeet/edumeet/internal/store"
	"github.com/edumeet/edumeet/internal/ui"
)

func newLLMCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "llm",
		Short: "Inspect logged LLM requests",
	}

	var (
		limit   int
		purpose string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent LLM requests with estimated cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.staff(cmd)
			if err != nil {
				return err
			}
			events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit})
			if err != nil {
				return err
			}
			if purpose != "" {
				kept := events[:0]
				for _, e := range events {
					if e.Purpose == purpose {
						kept = append(kept, e)
					}
				}
				events = kept
			}
			printOut(cmd, ui.Usage(events))
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Number of requests to show")
	list.Flags().StringVar(&purpose, "purpose", "", "Only requests with this purpose (tutor, quiz-draft)")

	c.AddCommand(list)
	return c
}
