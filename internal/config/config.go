// Package config loads the registry configuration file.
//
// The file is CUE, unified with an embedded schema that supplies defaults
// and rejects unknown fields:
//
//	database: "creatures.db"
//	accounts: {
//	    deployer: "0x66aB6D9362d4F35596279692F0251Db635165871"
//	    vault:    "0x33A4622B82D4c04a53e170c638B944ce27cffce3"
//	}
//	receivers: vault: {}
//	deploy: {
//	    minter:   "deployer"
//	    base_uri: "https://opensea-creatures-api.herokuapp.com/api/creature/"
//	}
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
)

//go:embed schema.cue
var schemaSource string

// DefaultDatabase is the database path used when neither the file nor a
// flag names one.
const DefaultDatabase = "nftreg.db"

// Config is a loaded, validated configuration.
type Config struct {
	Database  string
	Accounts  Accounts
	Receivers map[ir.Identity]ReceiverConfig
	Minter    ir.Identity
	BaseURI   string
}

// ReceiverConfig configures one mock receiver.
type ReceiverConfig struct {
	Ack  registry.Ack
	Fail bool
}

// Error is a configuration error, with the CUE position when known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// raw mirrors #Config for decoding.
type raw struct {
	Database  string                 `json:"database"`
	Accounts  map[string]string      `json:"accounts"`
	Receivers map[string]rawReceiver `json:"receivers"`
	Deploy    struct {
		Minter  string `json:"minter"`
		BaseURI string `json:"base_uri"`
	} `json:"deploy"`
}

type rawReceiver struct {
	Ack  string `json:"ack"`
	Fail bool   `json:"fail"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database:  DefaultDatabase,
		Accounts:  Accounts{},
		Receivers: map[ir.Identity]ReceiverConfig{},
	}
}

// Load reads and validates the CUE file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates CUE source against the schema. filename is used in
// error positions only.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var r raw
	if err := unified.Decode(&r); err != nil {
		return nil, formatCUEError(err)
	}
	return r.resolve(unified)
}

func (r raw) resolve(v cue.Value) (*Config, error) {
	cfg := Default()
	cfg.Database = r.Database
	cfg.BaseURI = r.Deploy.BaseURI

	for name, text := range r.Accounts {
		id, err := ir.ParseIdentity(text)
		if err != nil {
			return nil, fieldError(v, "accounts."+name, err.Error())
		}
		cfg.Accounts[name] = id
	}

	for key, rr := range r.Receivers {
		id, err := cfg.Accounts.Resolve(key)
		if err != nil {
			return nil, fieldError(v, "receivers", err.Error())
		}
		if id.IsNull() {
			return nil, fieldError(v, "receivers", "the null identity cannot be a receiver")
		}
		ack, err := registry.ParseAck(rr.Ack)
		if err != nil {
			return nil, fieldError(v, "receivers", err.Error())
		}
		cfg.Receivers[id] = ReceiverConfig{Ack: ack, Fail: rr.Fail}
	}

	if r.Deploy.Minter != "" {
		id, err := cfg.Accounts.Resolve(r.Deploy.Minter)
		if err != nil {
			return nil, fieldError(v, "deploy.minter", err.Error())
		}
		cfg.Minter = id
	}
	return cfg, nil
}

// ReceiverSet builds the configured receivers.
func (c *Config) ReceiverSet() registry.Receivers {
	rs := make(registry.Receivers, len(c.Receivers))
	for id, def := range c.Receivers {
		rs[id] = &registry.StaticReceiver{Ack: def.Ack, Fail: def.Fail}
	}
	return rs
}

// Accounts maps account names to identities.
type Accounts map[string]ir.Identity

// Resolve turns an account name, a hex identity or "null" into an identity.
func (a Accounts) Resolve(s string) (ir.Identity, error) {
	if id, ok := a[s]; ok {
		return id, nil
	}
	if s == "null" || strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return ir.ParseIdentity(s)
	}
	return ir.Null, fmt.Errorf("unknown account %q", s)
}

// Name returns the account name for id, or its hex form.
func (a Accounts) Name(id ir.Identity) string {
	names := make([]string, 0, len(a))
	for name, other := range a {
		if other == id {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return id.String()
	}
	sort.Strings(names)
	return names[0]
}

func fieldError(v cue.Value, field, msg string) *Error {
	return &Error{
		Field:   field,
		Message: msg,
		Pos:     v.LookupPath(cue.ParsePath(strings.SplitN(field, ".", 2)[0])).Pos(),
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &Error{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
