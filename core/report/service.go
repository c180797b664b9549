package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/roster"
)

type (
	// Completer sends a prompt to a generative model and returns its raw text answer.
	Completer interface {
		Complete(ctx context.Context, prompt string) (string, error)
	}

	// SnapshotSource provides the data reports are generated from.
	SnapshotSource interface {
		Snapshot() roster.Snapshot
	}

	ServiceInterface interface {
		GenerateStudentReport(ctx context.Context, studentID string) (StudentReport, error)
		GenerateClassReport(ctx context.Context) (ClassReport, error)
		CachedStudentReport(ctx context.Context, studentID string) (StudentReport, error)
		CachedClassReport(ctx context.Context) (ClassReport, error)
		EmailClassReport(rep ClassReport) error
		Chat(ctx context.Context, history []ChatMessage, message string) (string, error)
	}

	Service struct {
		ai      Completer
		snaps   SnapshotSource
		repo    core.KVRepository
		mailSvc core.EmailService
		prompts *prompts
		logger  core.Logger
		conf    *core.Config
		now     func() time.Time

		mu    sync.Mutex
		names map[string]string // student id -> name, as of the last snapshot seen
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	ai Completer,
	snaps SnapshotSource,
	repo core.KVRepository,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) (*Service, error) {
	p, err := newPrompts(conf.AI.Language)
	if err != nil {
		return nil, err
	}
	svc := &Service{
		ai:      ai,
		snaps:   snaps,
		repo:    repo,
		mailSvc: mailSvc,
		prompts: p,
		logger:  logger,
		conf:    conf,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if snaps != nil {
		svc.names = studentNames(snaps.Snapshot())
	}
	return svc, nil
}

// Handle is a roster.Subscriber. Ids are reassigned on every sync, so a cached student report
// is dropped once its id no longer belongs to the same student.
func (svc *Service) Handle(ev roster.Event) {
	if ev.Kind != roster.SyncSucceeded {
		return
	}
	names := studentNames(ev.Snapshot)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for id, name := range svc.names {
		if names[id] == name {
			continue
		}
		if err := svc.repo.Delete(ctx, core.StudentReportKey(id)); err != nil {
			svc.logger.Error(fmt.Sprintf("dropping cached report of %s: %v", id, err), err)
		}
	}
	svc.names = names
}

func studentNames(snap roster.Snapshot) map[string]string {
	names := make(map[string]string, len(snap.Students))
	for _, st := range snap.Students {
		names[st.StudentID] = st.StudentName
	}
	return names
}

// GenerateStudentReport asks the AI for a report on one student and caches it.
// Returns roster.ErrNotFound if no student has that id.
func (svc *Service) GenerateStudentReport(ctx context.Context, studentID string) (StudentReport, error) {
	snap := svc.snaps.Snapshot()
	st, ok := snap.StudentByID(studentID)
	if !ok {
		return StudentReport{}, roster.ErrNotFound
	}

	prompt, err := svc.prompts.student(st, snap.TestsOf(st.StudentName), snap.AttendanceOf(st.StudentName))
	if err != nil {
		return StudentReport{}, err
	}
	raw, err := svc.ai.Complete(ctx, prompt)
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "generating student report")
	}

	var rep StudentReport
	if err = decode(raw, studentReportKeys, &rep); err != nil {
		svc.logger.Warn(fmt.Sprintf("student report for %s: %v", studentID, err))
		return StudentReport{}, err
	}
	rep.StudentID = st.StudentID
	rep.GeneratedAt = svc.now()

	if err = svc.save(ctx, core.StudentReportKey(st.StudentID), rep); err != nil {
		return StudentReport{}, err
	}
	return rep, nil
}

// GenerateClassReport asks the AI for a class-wide report and caches it.
func (svc *Service) GenerateClassReport(ctx context.Context) (ClassReport, error) {
	prompt, err := svc.prompts.class(svc.snaps.Snapshot())
	if err != nil {
		return ClassReport{}, err
	}
	raw, err := svc.ai.Complete(ctx, prompt)
	if err != nil {
		return ClassReport{}, errors.Wrap(err, "generating class report")
	}

	var rep ClassReport
	if err = decode(raw, classReportKeys, &rep); err != nil {
		svc.logger.Warn(fmt.Sprintf("class report: %v", err))
		return ClassReport{}, err
	}
	rep.GeneratedAt = svc.now()

	if err = svc.save(ctx, core.KeyClassReport, rep); err != nil {
		return ClassReport{}, err
	}
	return rep, nil
}

// CachedStudentReport returns the last generated report of a student, or roster.ErrNotFound.
func (svc *Service) CachedStudentReport(ctx context.Context, studentID string) (StudentReport, error) {
	var rep StudentReport
	err := svc.load(ctx, core.StudentReportKey(studentID), &rep)
	return rep, err
}

// CachedClassReport returns the last generated class report, or roster.ErrNotFound.
func (svc *Service) CachedClassReport(ctx context.Context) (ClassReport, error) {
	var rep ClassReport
	err := svc.load(ctx, core.KeyClassReport, &rep)
	return rep, err
}

// EmailClassReport sends rep to the instructor, with the JSON document attached.
func (svc *Service) EmailClassReport(rep ClassReport) error {
	if svc.mailSvc == nil || svc.conf.InstructorEmail == "" {
		return core.NewValidationError(errors.New("no instructor email configured"))
	}
	to, err := mail.ParseAddress(svc.conf.InstructorEmail)
	if err != nil {
		return core.NewValidationError(errors.Wrap(err, "parsing instructor email"))
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{*to},
		Subject:      "Class report",
		TemplateName: "class_report",
		TemplateData: rep,
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding class report")
	}
	if err = msg.Attach(bytes.NewReader(data), "class-report.json", "application/json"); err != nil {
		return errors.Wrap(err, "attaching class report")
	}

	svc.mailSvc.SendMessages(msg)
	return nil
}

func (svc *Service) save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	if err = svc.repo.Set(ctx, key, data); err != nil {
		return errors.Wrapf(err, "caching %s", key)
	}
	return nil
}

func (svc *Service) load(ctx context.Context, key string, v interface{}) error {
	entry, err := svc.repo.Get(ctx, key)
	if err != nil {
		if errors.Cause(err) == core.ErrKeyNotFound {
			return roster.ErrNotFound
		}
		return errors.Wrapf(err, "reading %s", key)
	}
	return errors.Wrapf(json.Unmarshal(entry.Value, v), "decoding %s", key)
}
