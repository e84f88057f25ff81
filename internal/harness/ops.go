package harness

import (
	"github.com/roach88/nftreg/internal/registry"
)

// opDef describes the arguments an operation takes.
type opDef struct {
	mutating   bool
	needsToken bool
	required   []string
}

var operations = map[string]opDef{
	registry.OpMint:              {mutating: true, required: []string{"to"}},
	registry.OpBurn:              {mutating: true, needsToken: true},
	registry.OpApprove:           {mutating: true, needsToken: true, required: []string{"approved"}},
	registry.OpSetApprovalForAll: {mutating: true, required: []string{"operator", "enabled"}},
	registry.OpTransferFrom:      {mutating: true, needsToken: true, required: []string{"from", "to"}},
	registry.OpSafeTransferFrom:  {mutating: true, needsToken: true, required: []string{"from", "to"}},
	registry.OpSetBaseURI:        {mutating: true, required: []string{"uri"}},
	registry.OpTransferMinter:    {mutating: true, required: []string{"minter"}},

	registry.OpOwnerOf:           {needsToken: true},
	registry.OpBalanceOf:         {required: []string{"owner"}},
	registry.OpGetApproved:       {needsToken: true},
	registry.OpIsApprovedForAll:  {required: []string{"owner", "operator"}},
	registry.OpAuthorized:        {needsToken: true, required: []string{"actor"}},
	registry.OpTotalSupply:       {},
	registry.OpTokenURI:          {needsToken: true},
	registry.OpMinter:            {},
	registry.OpSupportsInterface: {required: []string{"interface_id"}},
}

func isIdentityArg(field string) bool {
	switch field {
	case "to", "from", "owner", "approved", "operator", "actor", "minter":
		return true
	}
	return false
}

// get returns a string argument by its YAML name.
func (a Args) get(field string) string {
	switch field {
	case "to":
		return a.To
	case "from":
		return a.From
	case "owner":
		return a.Owner
	case "approved":
		return a.Approved
	case "operator":
		return a.Operator
	case "actor":
		return a.Actor
	case "minter":
		return a.Minter
	case "data":
		return a.Data
	case "interface_id":
		return a.InterfaceID
	}
	return ""
}

// has reports whether an argument was given.
func (a Args) has(field string) bool {
	switch field {
	case "token_id":
		return a.TokenID != nil
	case "enabled":
		return a.Enabled != nil
	case "uri":
		return a.URI != nil
	}
	return a.get(field) != ""
}

// canonical returns the given arguments as canonical-JSON-compatible values.
func (a Args) canonical() map[string]any {
	m := make(map[string]any)
	for _, field := range []string{"to", "from", "owner", "approved", "operator", "actor", "minter", "data", "interface_id"} {
		if v := a.get(field); v != "" {
			m[field] = v
		}
	}
	if a.TokenID != nil {
		m["token_id"] = *a.TokenID
	}
	if a.Enabled != nil {
		m["enabled"] = *a.Enabled
	}
	if a.URI != nil {
		m["uri"] = *a.URI
	}
	return m
}
