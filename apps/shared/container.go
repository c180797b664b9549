// Package shared wires the dependencies common to the API server and the admin CLI.
package shared

import (
	"context"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/report"
	"github.com/trezcool/classboard/core/roster"
	"github.com/trezcool/classboard/core/settings"
	aisvc "github.com/trezcool/classboard/services/ai"
	emailsvc "github.com/trezcool/classboard/services/email"
	logsvc "github.com/trezcool/classboard/services/logger"
	"github.com/trezcool/classboard/services/sheets"
	"github.com/trezcool/classboard/storage/database"
	inmemdb "github.com/trezcool/classboard/storage/database/inmem"
	sqlxrepos "github.com/trezcool/classboard/storage/database/sqlx"
)

type Container struct {
	Conf       *core.Config
	Logger     core.Logger
	KV         core.KVRepository
	Mail       core.EmailService
	Settings   *settings.Service
	Store      *roster.Store
	Roster     *roster.Service
	Persister  *roster.Persister
	Reports    *report.Service
	Validate   *validator.Validate
	Translator ut.Translator

	closers []func() error
}

// NewLogger returns the zap console logger, reporting to rollbar outside debug mode.
func NewLogger(conf *core.Config) (core.Logger, func() error, error) {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating logger")
	}
	if conf.RollbarToken == "" {
		return zl, zl.Sync, nil
	}
	rl := logsvc.NewRollbarLogger(zl, conf)
	rl.Enable(!conf.Debug)
	return rl, zl.Sync, nil
}

// OpenKVRepository opens the KV store of the configured engine.
func OpenKVRepository(ctx context.Context, conf *core.Config) (core.KVRepository, func() error, error) {
	if conf.Database.Engine == database.EngineInMem {
		db, err := inmemdb.Open()
		if err != nil {
			return nil, nil, err
		}
		return inmemdb.NewKVRepository(db), db.Close, nil
	}

	db, err := database.Setup(ctx, conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "setting up database")
	}
	return sqlxrepos.NewKVRepository(db), db.Close, nil
}

func NewEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

// New builds every service and restores the last saved snapshot.
// The sample snapshot is served until the first sync when nothing was saved.
func New(ctx context.Context, conf *core.Config, logger core.Logger) (*Container, error) {
	c := &Container{Conf: conf, Logger: logger}

	kv, closeKV, err := OpenKVRepository(ctx, conf)
	if err != nil {
		return nil, err
	}
	c.KV = kv
	c.closers = append(c.closers, closeKV)

	ai, err := aisvc.NewClient(conf, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Mail = NewEmailService(conf, logger)
	c.Settings = settings.NewService(kv, conf)
	c.Store = roster.NewStore(roster.SampleSnapshot())
	c.Roster = roster.NewService(c.Store, sheets.NewClient(conf, logger), c.Settings, logger, conf)
	c.Persister = roster.NewPersister(kv, logger)

	if err = c.Roster.Restore(ctx, c.Persister); err != nil {
		logger.Warn(fmt.Sprintf("restoring snapshot: %v", err), err)
	}
	unsubscribe := c.Roster.Subscribe(c.Persister.Handle)
	c.closers = append(c.closers, func() error {
		unsubscribe()
		return nil
	})

	c.Reports, err = report.NewService(ai, c.Roster, kv, c.Mail, logger, conf)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	unsubscribeReports := c.Roster.Subscribe(c.Reports.Handle)
	c.closers = append(c.closers, func() error {
		unsubscribeReports()
		return nil
	})

	c.Validate, c.Translator = NewValidator()
	core.ParseEmailTemplates(logger)
	return c, nil
}

// Close waits for the sync and the emails in flight, then releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	if c.Roster != nil {
		c.Roster.Wait()
	}
	if c.Mail != nil {
		c.Mail.Wait()
	}

	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
