package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nftreg/internal/config"
)

// ValidationError is one problem found in a config file.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Database  string            `json:"database,omitempty"`
	Accounts  []string          `json:"accounts,omitempty"`
	Receivers int               `json:"receivers"`
	Minter    string            `json:"minter,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a registry config file",
		Long: `Validate a CUE registry config file against the built-in schema
without opening a database.

The schema supplies defaults (database nftreg.db, receiver ack 0x150b7a02)
and rejects malformed identities, account names and acknowledgments.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	formatter.VerboseLog("Validating %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			_ = formatter.Error(ErrCodeCommand, err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: "failed to read config", Err: err, Reported: true}
		}
		return outputValidationErrors(formatter, []ValidationError{validationError(err)})
	}

	result := ValidationResult{
		Valid:     true,
		Database:  cfg.Database,
		Receivers: len(cfg.Receivers),
	}
	for name := range cfg.Accounts {
		result.Accounts = append(result.Accounts, name)
	}
	sort.Strings(result.Accounts)
	if !cfg.Minter.IsNull() {
		result.Minter = cfg.Accounts.Name(cfg.Minter)
	}
	return outputValidateSuccess(formatter, result)
}

func validationError(err error) ValidationError {
	var e *config.Error
	if !errors.As(err, &e) {
		return ValidationError{Field: "config", Message: err.Error(), Code: ErrCodeConfig}
	}
	v := ValidationError{
		Field:   e.Field,
		Message: e.Message,
		Code:    ErrCodeConfig,
	}
	if e.Pos.IsValid() {
		v.Line = e.Pos.Line()
		v.Column = e.Pos.Column()
	}
	return v
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✓ Config valid")
	fmt.Fprintf(w, "  Database: %s\n", result.Database)
	if len(result.Accounts) > 0 {
		fmt.Fprintf(w, "  Accounts: %d\n", len(result.Accounts))
	}
	fmt.Fprintf(w, "  Receivers: %d\n", result.Receivers)
	if result.Minter != "" {
		fmt.Fprintf(w, "  Minter: %s\n", result.Minter)
	}
	return nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	failure := &ExitError{
		Code:     ExitFailure,
		Message:  fmt.Sprintf("validation failed with %d error(s)", len(errs)),
		Reported: true,
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Field, strings.TrimSpace(err.Message))
	}
	return failure
}
