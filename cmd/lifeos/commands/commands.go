// Package commands implements the lifeos command line.
package commands

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/client"
	"github.com/duongtruongbinh/life-os/internal/config"
	"github.com/duongtruongbinh/life-os/internal/gateway"
	"github.com/duongtruongbinh/life-os/internal/models"
)

// Remote is the server API the CLI uses: the store's gateway plus account reads.
type Remote interface {
	gateway.Gateway
	Streaks(ctx context.Context) ([]models.HabitStreak, error)
	Me(ctx context.Context) (*models.User, error)
}

type rootOptions struct {
	configFile string
	date       string
	save       bool
	debug      bool
}

// env carries the flags and the seams tests replace.
type env struct {
	opts    rootOptions
	viper   *viper.Viper
	now     func() time.Time
	loc     *time.Location
	connect func(cfg *config.ClientConfig, logger *zap.Logger) (Remote, error)
}

func defaultEnv() *env {
	return &env{
		viper:   viper.New(),
		now:     time.Now,
		loc:     time.Local,
		connect: connectHTTP,
	}
}

func connectHTTP(cfg *config.ClientConfig, logger *zap.Logger) (Remote, error) {
	c, err := client.New(cfg.ServerURL, cfg.Token,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// New returns the lifeos root command.
func New() *cobra.Command {
	return newRoot(defaultEnv())
}

func newRoot(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lifeos",
		Short:         "Track tasks, habits, sleep, focus and push-ups from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.opts.configFile, "config", "", "config file (default ~/.config/life-os/config.yaml)")
	flags.StringVar(&e.opts.date, "date", "", "date to act on as YYYY-MM-DD (default today)")
	flags.BoolVar(&e.opts.save, "save", false, "push changes to the server before exiting")
	flags.BoolVar(&e.opts.debug, "debug", false, "log debug output to stderr")

	addCommands(cmd, e)
	return cmd
}

func addCommands(topLevel *cobra.Command, e *env) {
	addPull(topLevel, e)
	addPush(topLevel, e)
	addStatus(topLevel, e)
	addHabit(topLevel, e)
	addTask(topLevel, e)
	addSleep(topLevel, e)
	addFocus(topLevel, e)
	addPushups(topLevel, e)
	addNotes(topLevel, e)
	addSettings(topLevel, e)
	addStreaks(topLevel, e)
	addWhoami(topLevel, e)
	addExport(topLevel, e)
	addReset(topLevel, e)
}
