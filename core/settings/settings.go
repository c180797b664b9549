package settings

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
)

// SourceConfig locates the two spreadsheets a sync reads from.
type SourceConfig struct {
	TestsSourceID      string `json:"testsSourceId" validate:"notblank"`
	AttendanceSourceID string `json:"attendanceSourceId" validate:"notblank"`
}

// Validate only rejects blank identifiers. Whether an identifier points to a readable sheet is
// only known once it is fetched.
func (sc SourceConfig) Validate(validate *validator.Validate) error {
	return validate.Struct(sc)
}

type ServiceInterface interface {
	Get(ctx context.Context) (SourceConfig, error)
	Set(ctx context.Context, sc SourceConfig) error
}

// Service persists the SourceConfig in the KV store. It never triggers a sync.
type Service struct {
	repo     core.KVRepository
	defaults SourceConfig
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo core.KVRepository, conf *core.Config) *Service {
	return &Service{
		repo: repo,
		defaults: SourceConfig{
			TestsSourceID:      conf.Sheets.TestsSourceID,
			AttendanceSourceID: conf.Sheets.AttendanceSourceID,
		},
	}
}

// Get returns the persisted config, or the configured defaults if none was saved yet.
func (svc *Service) Get(ctx context.Context) (SourceConfig, error) {
	entry, err := svc.repo.Get(ctx, core.KeySheetConfig)
	if err != nil {
		if errors.Cause(err) == core.ErrKeyNotFound {
			return svc.defaults, nil
		}
		return SourceConfig{}, errors.Wrap(err, "reading sheet config")
	}

	var sc SourceConfig
	if err = json.Unmarshal(entry.Value, &sc); err != nil {
		return SourceConfig{}, errors.Wrap(err, "decoding sheet config")
	}
	return sc, nil
}

func (svc *Service) Set(ctx context.Context, sc SourceConfig) error {
	sc.TestsSourceID = core.CleanString(sc.TestsSourceID)
	sc.AttendanceSourceID = core.CleanString(sc.AttendanceSourceID)

	data, err := json.Marshal(sc)
	if err != nil {
		return errors.Wrap(err, "encoding sheet config")
	}
	if err = svc.repo.Set(ctx, core.KeySheetConfig, data); err != nil {
		return errors.Wrap(err, "saving sheet config")
	}
	return nil
}
