package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
)

const persistTimeout = 5 * time.Second

// Persister saves every committed snapshot to the KV store so it survives restarts.
type Persister struct {
	repo   core.KVRepository
	logger core.Logger
}

var _ SnapshotLoader = (*Persister)(nil)

func NewPersister(repo core.KVRepository, logger core.Logger) *Persister {
	return &Persister{repo: repo, logger: logger}
}

// Handle is a Subscriber.
func (p *Persister) Handle(ev Event) {
	if ev.Kind != SyncSucceeded {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := p.Save(ctx, ev.Snapshot); err != nil {
		p.logger.Error(fmt.Sprintf("persisting snapshot of sync %s: %v", ev.RunID, err), err)
	}
}

func (p *Persister) Save(ctx context.Context, snap Snapshot) error {
	snap.Loading = false
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	return errors.Wrap(p.repo.Set(ctx, core.KeySnapshot, data), "saving snapshot")
}

func (p *Persister) Load(ctx context.Context) (Snapshot, error) {
	entry, err := p.repo.Get(ctx, core.KeySnapshot)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err = json.Unmarshal(entry.Value, &snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "decoding snapshot")
	}
	return snap, nil
}
