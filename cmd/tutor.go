package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edumeet/edumeet/internal/tutor"
	"github.com/edumeet/edumeet/internal/ui/theme"
)

func newTutorCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "tutor",
		Short: "Chat with the AI tutor",
	}
	c.AddCommand(newTutorAskCmd(a))
	return c
}

func newTutorAskCmd(a *app) *cobra.Command {
	var number int
	cmd := &cobra.Command{
		Use:   "ask <course> [question...]",
		Short: "Ask the AI tutor about a module",
		Long:  "Ask the AI tutor about a module. With no question, read questions line by line from stdin and keep the conversation going.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			if number > 0 {
				if err := p.GoToModule(number - 1); err != nil {
					return fmt.Errorf("module %d: %w", number, err)
				}
			}
			m, err := p.ActiveModule()
			if err != nil {
				return err
			}
			provider, err := a.provider(cmd)
			if err != nil {
				return err
			}
			conv := tutor.New(provider, tutor.DefaultConfig(), a.log).Conversation(p.Course(), m)

			if len(args) > 1 {
				return a.ask(cmd, conv, strings.Join(args[1:], " "))
			}

			printOut(cmd, theme.Hint.Render(fmt.Sprintf("Tutoring on %q. Empty line or Ctrl-D to quit.", m.Title)))
			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), theme.Current.Render("> "))
				if !in.Scan() {
					return in.Err()
				}
				q := strings.TrimSpace(in.Text())
				if q == "" {
					return nil
				}
				if err := a.ask(cmd, conv, q); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().IntVar(&number, "module", 0, "Module number, starting at 1 (default: current module)")
	return cmd
}

func (a *app) ask(cmd *cobra.Command, conv *tutor.Conversation, question string) error {
	ctx, cancel := a.llmContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	for delta, err := range conv.Ask(ctx, question) {
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
		if _, err := io.WriteString(out, delta); err != nil {
			return err
		}
	}
	fmt.Fprintln(out)
	return nil
}
