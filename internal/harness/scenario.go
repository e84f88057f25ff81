package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nftreg/internal/registry"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Minter is the account the registry is deployed with.
	// Defaults to "minter".
	Minter string `yaml:"minter,omitempty"`

	// BaseURI is the initial metadata base.
	BaseURI string `yaml:"base_uri,omitempty"`

	// Receivers lists the accounts that expose a mock receiver.
	Receivers map[string]ReceiverConfig `yaml:"receivers,omitempty"`

	// Setup steps establish initial state and must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the steps under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final state, events and receivers.
	Assertions []Assertion `yaml:"assertions"`
}

// ReceiverConfig configures a mock receiver.
type ReceiverConfig struct {
	// Ack is the acknowledgment returned. Defaults to 0x150b7a02.
	Ack string `yaml:"ack,omitempty"`

	// Fail makes the receiver return an error instead of an ack.
	Fail bool `yaml:"fail,omitempty"`
}

// Step is one registry operation.
type Step struct {
	// Op is the operation name (registry.OpMint, registry.OpOwnerOf, ...).
	Op string `yaml:"op"`

	// Caller is the acting account. Required for mutating operations.
	Caller string `yaml:"caller,omitempty"`

	Args Args `yaml:"args,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed and its result is not checked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Args are the operation arguments. Which ones apply depends on Op.
type Args struct {
	To          string  `yaml:"to,omitempty"`
	From        string  `yaml:"from,omitempty"`
	Owner       string  `yaml:"owner,omitempty"`
	Approved    string  `yaml:"approved,omitempty"`
	Operator    string  `yaml:"operator,omitempty"`
	Actor       string  `yaml:"actor,omitempty"`
	Minter      string  `yaml:"minter,omitempty"`
	TokenID     *uint64 `yaml:"token_id,omitempty"`
	Enabled     *bool   `yaml:"enabled,omitempty"`
	Data        string  `yaml:"data,omitempty"`
	URI         *string `yaml:"uri,omitempty"`
	InterfaceID string  `yaml:"interface_id,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Error is the expected error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Result is the expected return value. Identities are written as
	// account names.
	Result any `yaml:"result,omitempty"`
}

// Assertion validates the final state, the event log or a receiver.
type Assertion struct {
	Type string `yaml:"type"`

	TokenID  *uint64 `yaml:"token_id,omitempty"`
	Owner    string  `yaml:"owner,omitempty"`
	Operator string  `yaml:"operator,omitempty"`
	Receiver string  `yaml:"receiver,omitempty"`

	// Kind filters events (event_contains, event_count).
	Kind string `yaml:"kind,omitempty"`

	// Fields are the event fields to match (event_contains). Subset match.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Calls are the expected receiver calls, in order (received).
	Calls []map[string]any `yaml:"calls,omitempty"`

	// Count is the expected number of events or receiver calls.
	Count *int `yaml:"count,omitempty"`

	// Expect is the expected read value.
	Expect any `yaml:"expect,omitempty"`

	// Error is the expected error code of the read.
	Error string `yaml:"error,omitempty"`
}

// Assertion type constants.
const (
	AssertOwnerOf          = "owner_of"
	AssertBalanceOf        = "balance_of"
	AssertGetApproved      = "get_approved"
	AssertIsApprovedForAll = "is_approved_for_all"
	AssertTotalSupply      = "total_supply"
	AssertTokenURI         = "token_uri"
	AssertMinter           = "minter"
	AssertEventContains    = "event_contains"
	AssertEventCount       = "event_count"
	AssertReceived         = "received"
	AssertInvariants       = "invariants"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for name, rs := range s.Receivers {
		if rs.Ack == "" {
			continue
		}
		if _, err := registry.ParseAck(rs.Ack); err != nil {
			return fmt.Errorf("receivers.%s: %w", name, err)
		}
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot have expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	def, ok := operations[step.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if def.mutating && step.Caller == "" {
		return fmt.Errorf("%s: caller is required", step.Op)
	}
	if def.needsToken && step.Args.TokenID == nil {
		return fmt.Errorf("%s: args.token_id is required", step.Op)
	}
	for _, field := range def.required {
		if !step.Args.has(field) {
			return fmt.Errorf("%s: args.%s is required", step.Op, field)
		}
	}
	if step.Expect != nil && step.Expect.Error != "" && step.Expect.Result != nil {
		return fmt.Errorf("%s: expect cannot have both error and result", step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertOwnerOf, AssertGetApproved, AssertTokenURI:
		if a.TokenID == nil {
			return fmt.Errorf("token_id is required for %s", a.Type)
		}
	case AssertBalanceOf:
		if a.Owner == "" {
			return fmt.Errorf("owner is required for balance_of")
		}
	case AssertIsApprovedForAll:
		if a.Owner == "" || a.Operator == "" {
			return fmt.Errorf("owner and operator are required for is_approved_for_all")
		}
	case AssertTotalSupply, AssertMinter, AssertInvariants:
	case AssertEventContains:
		if a.Kind == "" {
			return fmt.Errorf("kind is required for event_contains")
		}
	case AssertEventCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("non-negative count is required for event_count")
		}
	case AssertReceived:
		if a.Receiver == "" {
			return fmt.Errorf("receiver is required for received")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	switch a.Type {
	case AssertOwnerOf, AssertGetApproved, AssertTokenURI, AssertBalanceOf:
		if a.Error == "" && a.Expect == nil {
			return fmt.Errorf("%s: expect or error is required", a.Type)
		}
	case AssertIsApprovedForAll, AssertTotalSupply, AssertMinter:
		if a.Expect == nil {
			return fmt.Errorf("%s: expect is required", a.Type)
		}
	}
	return nil
}
