package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/nftreg/internal/ir"
)

// Backend key layout.
//
//	meta/minter                   identity
//	meta/base_uri                 string
//	meta/next_id                  decimal
//	meta/minted                   decimal
//	meta/burned                   decimal
//	owner/<20-digit id>           identity
//	approval/<20-digit id>        identity
//	balance/<identity>            decimal
//	operator/<owner>/<operator>   "1"
//
// Token IDs are zero-padded so that a prefix scan returns them in order.
const (
	keyMinter  = "meta/minter"
	keyBaseURI = "meta/base_uri"
	keyNextID  = "meta/next_id"
	keyMinted  = "meta/minted"
	keyBurned  = "meta/burned"

	PrefixMeta     = "meta/"
	PrefixOwner    = "owner/"
	PrefixApproval = "approval/"
	PrefixBalance  = "balance/"
	PrefixOperator = "operator/"
)

func ownerKey(id ir.TokenID) string {
	return fmt.Sprintf("%s%020d", PrefixOwner, uint64(id))
}

func approvalKey(id ir.TokenID) string {
	return fmt.Sprintf("%s%020d", PrefixApproval, uint64(id))
}

func balanceKey(who ir.Identity) string {
	return PrefixBalance + who.String()
}

func operatorKey(p operatorPair) string {
	return PrefixOperator + p.Owner.String() + "/" + p.Operator.String()
}

// value encodes the current state behind key. A false result means the key
// has no entry and must be deleted from the backend.
func (s *state) value(key string) ([]byte, bool, error) {
	switch key {
	case keyMinter:
		return []byte(s.minter.String()), true, nil
	case keyBaseURI:
		return []byte(s.baseURI), true, nil
	case keyNextID, keyMinted, keyBurned:
		return []byte(strconv.FormatUint(*s.counter(key), 10)), true, nil
	}

	switch {
	case strings.HasPrefix(key, PrefixOwner):
		id, err := parseTokenKey(key, PrefixOwner)
		if err != nil {
			return nil, false, err
		}
		owner, ok := s.owners[id]
		return []byte(owner.String()), ok, nil
	case strings.HasPrefix(key, PrefixApproval):
		id, err := parseTokenKey(key, PrefixApproval)
		if err != nil {
			return nil, false, err
		}
		approved, ok := s.approvals[id]
		return []byte(approved.String()), ok, nil
	case strings.HasPrefix(key, PrefixBalance):
		who, err := ir.ParseIdentity(strings.TrimPrefix(key, PrefixBalance))
		if err != nil {
			return nil, false, fmt.Errorf("key %q: %w", key, err)
		}
		n, ok := s.balances[who]
		return []byte(strconv.FormatUint(n, 10)), ok, nil
	case strings.HasPrefix(key, PrefixOperator):
		p, err := parseOperatorKey(key)
		if err != nil {
			return nil, false, err
		}
		return []byte("1"), s.operators[p], nil
	}
	return nil, false, fmt.Errorf("unknown key %q", key)
}

// load decodes one backend entry into s. It is the inverse of value.
func (s *state) load(key string, raw []byte) error {
	text := string(raw)
	switch key {
	case keyMinter:
		id, err := ir.ParseIdentity(text)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		s.minter = id
		return nil
	case keyBaseURI:
		s.baseURI = text
		return nil
	case keyNextID, keyMinted, keyBurned:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		*s.counter(key) = n
		return nil
	}

	switch {
	case strings.HasPrefix(key, PrefixOwner):
		id, err := parseTokenKey(key, PrefixOwner)
		if err != nil {
			return err
		}
		owner, err := ir.ParseIdentity(text)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		s.owners[id] = owner
	case strings.HasPrefix(key, PrefixApproval):
		id, err := parseTokenKey(key, PrefixApproval)
		if err != nil {
			return err
		}
		approved, err := ir.ParseIdentity(text)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		s.approvals[id] = approved
	case strings.HasPrefix(key, PrefixBalance):
		who, err := ir.ParseIdentity(strings.TrimPrefix(key, PrefixBalance))
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		s.balances[who] = n
	case strings.HasPrefix(key, PrefixOperator):
		p, err := parseOperatorKey(key)
		if err != nil {
			return err
		}
		s.operators[p] = true
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func parseTokenKey(key, prefix string) (ir.TokenID, error) {
	id, err := ir.ParseTokenID(strings.TrimPrefix(key, prefix))
	if err != nil {
		return 0, fmt.Errorf("key %q: %w", key, err)
	}
	return id, nil
}

func parseOperatorKey(key string) (operatorPair, error) {
	owner, operator, ok := strings.Cut(strings.TrimPrefix(key, PrefixOperator), "/")
	if !ok {
		return operatorPair{}, fmt.Errorf("key %q: malformed operator key", key)
	}
	o, err := ir.ParseIdentity(owner)
	if err != nil {
		return operatorPair{}, fmt.Errorf("key %q: %w", key, err)
	}
	op, err := ir.ParseIdentity(operator)
	if err != nil {
		return operatorPair{}, fmt.Errorf("key %q: %w", key, err)
	}
	return operatorPair{Owner: o, Operator: op}, nil
}
