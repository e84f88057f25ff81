package registry

import (
	"context"
	"fmt"

	"github.com/roach88/nftreg/internal/ir"
)

// Backend is the durable key/value store and event log behind a registry.
// Implemented by store.Store (SQLite) and memstore.Store.
type Backend interface {
	// Scan calls fn for every key starting with prefix, in key order.
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error

	// Commit applies mutations and appends events atomically: either all of
	// them become visible or none do.
	Commit(ctx context.Context, mutations []ir.Mutation, events []ir.Event) error

	// LastSeq returns the highest committed event seq, or 0.
	LastSeq(ctx context.Context) (int64, error)
}

// Deploy initializes an empty backend with a new registry owned by minter
// and returns it. It fails with ALREADY_DEPLOYED if the backend already
// holds a registry.
func Deploy(ctx context.Context, b Backend, minter ir.Identity, opts ...Option) (*Registry, error) {
	if minter.IsNull() {
		return nil, &Error{
			Code:    CodeInvalidRecipient,
			Op:      OpDeploy,
			Message: "minter is the null identity",
		}
	}

	deployed, err := isDeployed(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	if deployed {
		return nil, &Error{
			Code:    CodeAlreadyDeployed,
			Op:      OpDeploy,
			Message: "backend already holds a registry",
		}
	}

	o := buildOptions(opts)
	st := newState(minter, o.baseURI)

	muts := make([]ir.Mutation, 0, 5)
	for _, key := range []string{keyMinter, keyBaseURI, keyNextID, keyMinted, keyBurned} {
		value, _, err := st.value(key)
		if err != nil {
			return nil, fmt.Errorf("deploy: %w", err)
		}
		muts = append(muts, ir.Mutation{Key: key, Value: value})
	}
	if err := b.Commit(ctx, muts, nil); err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	o.logger.Info("registry deployed", "minter", minter.String(), "base_uri", st.baseURI)
	return newRegistry(st, NewClock(), b, o), nil
}

// Open loads the registry held by b. It fails with NOT_DEPLOYED if the
// backend is empty. The clock resumes after the last committed event.
func Open(ctx context.Context, b Backend, opts ...Option) (*Registry, error) {
	deployed, err := isDeployed(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if !deployed {
		return nil, &Error{
			Code:    CodeNotDeployed,
			Op:      OpOpen,
			Message: "backend holds no registry",
		}
	}

	o := buildOptions(opts)
	st := newState(ir.Null, "")
	if err := b.Scan(ctx, "", st.load); err != nil {
		return nil, fmt.Errorf("open: load state: %w", err)
	}

	lastSeq, err := b.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	o.logger.Debug("registry opened",
		"minter", st.minter.String(),
		"tokens", len(st.owners),
		"last_seq", lastSeq,
	)
	return newRegistry(st, NewClockAt(lastSeq), b, o), nil
}

func isDeployed(ctx context.Context, b Backend) (bool, error) {
	found := false
	err := b.Scan(ctx, keyMinter, func(key string, _ []byte) error {
		if key == keyMinter {
			found = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}
