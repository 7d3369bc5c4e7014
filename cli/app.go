// Package cli is the command-line shell around the planner's document
// store.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/backup"
	"github.com/kukshaus/family-planner/config"
	"github.com/kukshaus/family-planner/docdb"
	"github.com/kukshaus/family-planner/family"
	"github.com/kukshaus/family-planner/store"
)

type app struct {
	cfg  *config.Config
	log  *zap.Logger
	now  func() time.Time
	out  io.Writer
	open func(store.Config, *zap.Logger) (store.Store, error)

	kv     store.Store
	ownsKV bool
	repo   *family.Repo
}

// Option configures the command tree.
type Option func(*app)

// WithStore runs every command against kv instead of the configured
// backend. kv is left open.
func WithStore(kv store.Store) Option {
	return func(a *app) { a.kv = kv }
}

// WithStoreOpener replaces store.New for opening the configured backend.
func WithStoreOpener(open func(store.Config, *zap.Logger) (store.Store, error)) Option {
	return func(a *app) { a.open = open }
}

// WithClock replaces time.Now for seed dates and backup names.
func WithClock(now func() time.Time) Option {
	return func(a *app) { a.now = now }
}

// WithOutput sends command output and errors to w instead of the
// process streams.
func WithOutput(w io.Writer) Option {
	return func(a *app) { a.out = w }
}

// Execute runs the family-planner command named by args and closes the
// store it opened, whether or not the command succeeded.
func Execute(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string, opts ...Option) (err error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &app{cfg: cfg, log: log, now: time.Now, open: store.New}
	for _, opt := range opts {
		opt(a)
	}
	defer func() {
		if cerr := a.close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close store: %w", cerr))
		}
	}()

	root := a.rootCommand()
	root.SetArgs(args)
	if a.out != nil {
		root.SetOut(a.out)
		root.SetErr(a.out)
	}
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	cfg := a.cfg
	root := &cobra.Command{
		Use:           "family-planner",
		Short:         "Manage the family planner document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			return a.openStore()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfg.StoreBackend, "backend", cfg.StoreBackend, "storage backend (json, sqlite, postgres, redis, memory)")
	pf.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory for file backends")
	pf.StringVar(&cfg.KeyPrefix, "prefix", cfg.KeyPrefix, "key namespace prefix")

	root.AddCommand(
		a.seedCommand(),
		a.statsCommand(),
		a.listCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.clearCommand(),
		a.resetCommand(),
	)
	return root
}

func (a *app) openStore() error {
	if a.kv == nil {
		kv, err := a.open(a.cfg.Store(), a.log)
		if err != nil {
			return fmt.Errorf("failed to open store (backend=%s): %w", a.cfg.StoreBackend, err)
		}
		a.kv, a.ownsKV = kv, true
	}
	db := family.NewDB(a.kv, docdb.WithPrefix(a.cfg.KeyPrefix), docdb.WithLogger(a.log))
	a.repo = family.NewRepo(db, family.WithLogger(a.log), family.WithClock(a.now))
	return nil
}

func (a *app) close() error {
	if !a.ownsKV || a.kv == nil {
		return nil
	}
	err := a.kv.Close()
	a.kv, a.ownsKV = nil, false
	return err
}

func (a *app) target(useS3 bool, dir string) (backup.Target, error) {
	if useS3 {
		if !a.cfg.S3Enabled() {
			return nil, fmt.Errorf("S3 backups need S3_ENDPOINT and S3_BUCKET")
		}
		return backup.NewS3(a.cfg.S3(), a.log)
	}
	if dir == "" {
		dir = a.cfg.BackupDir
	}
	return backup.Dir{Path: dir, Log: a.log}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
