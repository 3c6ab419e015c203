// Package cmd implements the edumeet command line.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/edumeet/edumeet/internal/account"
	"github.com/edumeet/edumeet/internal/config"
	"github.com/edumeet/edumeet/internal/store"
)

var errNoUser = errors.New("no acting user: pass --user or set EDUMEET_USER")

// app is the state shared by every command of one invocation.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	store *store.Store
}

// Execute runs the edumeet command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "edumeet",
		Short:        "Course player, grading and tutoring for edumeet",
		Long:         "edumeet: take courses module by module, sit the mid-term and final, submit a capstone and track your grade.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides EDUMEET_DB)")
	pf.String("user", "", "Acting user id (overrides EDUMEET_USER)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (overrides EDUMEET_LOG_LEVEL)")

	root.AddCommand(
		newCourseCmd(a),
		newUserCmd(a),
		newEnrollCmd(a),
		newModuleCmd(a),
		newQuizCmd(a),
		newCapstoneCmd(a),
		newGradeCmd(a),
		newProgressCmd(a),
		newTutorCmd(a),
		newNotificationsCmd(a),
		newLLMCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	v := config.New()
	for key, flag := range map[string]string{"db": "db", "user": "user", "log_level": "log-level"} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

// db opens the database on first use.
func (a *app) db() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if err := store.EnsureDir(a.cfg.DB); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	s, err := store.Open(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.store = s
	return s, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// user loads the acting user.
func (a *app) user(cmd *cobra.Command) (*store.Store, *account.User, error) {
	s, err := a.db()
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.User == "" {
		return nil, nil, errNoUser
	}
	u, err := s.Users().Get(cmd.Context(), a.cfg.User)
	if err != nil {
		return nil, nil, err
	}
	return s, u, nil
}

// staff loads the acting user and requires a tutor or admin.
func (a *app) staff(cmd *cobra.Command) (*store.Store, *account.User, error) {
	s, u, err := a.user(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !u.Privileged() {
		return nil, nil, fmt.Errorf("%s is a %s; this needs a tutor or admin", u.ID, u.Role)
	}
	return s, u, nil
}

func printOut(cmd *cobra.Command, s string) {
	lipgloss.Fprintln(cmd.OutOrStdout(), s)
}
