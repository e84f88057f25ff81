package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nftreg/internal/config"
	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
	"github.com/roach88/nftreg/internal/store"
)

// session is one command's view of a registry database: the loaded
// config, the open store and the output formatter.
type session struct {
	opts  *RootOptions
	cfg   *config.Config
	store *store.Store
	out   *OutputFormatter
}

// newFormatter builds the formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig returns the config named by --config, or the defaults.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	return config.Load(opts.Config)
}

// openSession loads the config and opens the database.
// The caller must Close the session.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to load config", Err: err, Reported: true}
	}

	path := opts.Database
	if path == "" {
		path = cfg.Database
	}
	st, err := store.Open(path)
	if err != nil {
		_ = out.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to open database", Err: err, Reported: true}
	}
	out.VerboseLog("Using database %s", path)

	return &session{opts: opts, cfg: cfg, store: st, out: out}, nil
}

// Close closes the database.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close database", "path", s.store.Path(), "error", err)
	}
}

// registryOptions returns the options every opened registry gets.
func (s *session) registryOptions() []registry.Option {
	return []registry.Option{
		registry.WithLogger(slog.Default()),
		registry.WithReceivers(s.cfg.ReceiverSet()),
	}
}

// openRegistry opens the deployed registry.
func (s *session) openRegistry(ctx context.Context) (*registry.Registry, error) {
	reg, err := registry.Open(ctx, s.store, s.registryOptions()...)
	if err != nil {
		return nil, s.out.Fail("failed to open registry", err)
	}
	return reg, nil
}

// identity resolves a flag or argument value through the config's
// account aliases.
func (s *session) identity(what, value string) (ir.Identity, error) {
	id, err := s.cfg.Accounts.Resolve(strings.TrimSpace(value))
	if err != nil {
		return ir.Null, s.out.Fail("invalid "+what, fmt.Errorf("%s: %w", what, err))
	}
	return id, nil
}

// caller resolves --from.
func (s *session) caller() (ir.Identity, error) {
	if s.opts.From == "" {
		return ir.Null, s.out.Fail("missing caller", fmt.Errorf("--from is required"))
	}
	return s.identity("--from", s.opts.From)
}

// token parses a token ID argument.
func (s *session) token(value string) (ir.TokenID, error) {
	id, err := ir.ParseTokenID(value)
	if err != nil {
		return 0, s.out.Fail("invalid token id", err)
	}
	return id, nil
}

// name renders an identity through the account aliases.
func (s *session) name(id ir.Identity) string {
	if id.IsNull() {
		return "null"
	}
	return s.cfg.Accounts.Name(id)
}
