package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/classboard/apps/shared"
	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/report"
	"github.com/trezcool/classboard/core/roster"
	"github.com/trezcool/classboard/core/settings"
	"github.com/trezcool/classboard/storage/database"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errUnknownFormat = errors.New(`format must be one of "auto", "text" or "json"`)
)

const skipDeps = "skipDeps"

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	out    io.Writer
	format string

	deps *shared.Container
}

func newCommandLine(conf *core.Config, logger core.Logger, out io.Writer) *commandLine {
	return &commandLine{conf: conf, logger: logger, out: out}
}

func (cli *commandLine) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Classboard administration",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cli.format {
			case "auto":
				cli.format = "text"
				if f, ok := cli.out.(*os.File); !ok || !isTerminalFunc(int(f.Fd())) {
					cli.format = "json"
				}
			case "text", "json":
			default:
				return errUnknownFormat
			}
			if cmd.Annotations[skipDeps] != "" || cli.deps != nil {
				return nil
			}
			deps, err := shared.New(cmd.Context(), cli.conf, cli.logger)
			if err != nil {
				return err
			}
			cli.deps = deps
			return nil
		},
	}
	cmd.SetOut(cli.out)
	cmd.SetErr(cli.out)
	cmd.PersistentFlags().StringVar(&cli.format, "format", "auto", "output format (auto|text|json); auto prints text on a terminal")

	cmd.AddCommand(
		cli.syncCommand(),
		cli.configCommand(),
		cli.statsCommand(),
		cli.reportCommand(),
		cli.migrateCommand(),
	)
	return cmd
}

func (cli *commandLine) close() error {
	if cli.deps == nil {
		return nil
	}
	return cli.deps.Close()
}

func (cli *commandLine) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch both sheets and replace the saved snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := cli.deps.Roster.Sync(cmd.Context())
			if err != nil {
				return err
			}
			return cli.print(res, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "sync %s done in %v\n", res.RunID, res.Duration)
				_, _ = fmt.Fprintf(w, "students: %d\ntests: %d\nattendance: %d\n",
					len(res.Snapshot.Students), len(res.Snapshot.Tests), len(res.Snapshot.Attendance))
				for _, warn := range res.Warnings {
					_, _ = fmt.Fprintf(w, "warning: %s\n", warn)
				}
			})
		},
	}
}

func (cli *commandLine) configCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Show or change the sheet sources"}

	get := &cobra.Command{
		Use:  "get",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := cli.deps.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			return cli.printConfig(sc)
		},
	}

	var testsID, attendanceID string
	set := &cobra.Command{
		Use:   "set",
		Short: "Save new sheet ids; the next sync reads from them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sc, err := cli.deps.Settings.Get(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("tests") {
				sc.TestsSourceID = testsID
			}
			if cmd.Flags().Changed("attendance") {
				sc.AttendanceSourceID = attendanceID
			}
			if err = sc.Validate(cli.deps.Validate); err != nil {
				return fieldErrors(err, cli.deps)
			}
			if err = cli.deps.Settings.Set(ctx, sc); err != nil {
				return err
			}
			sc, err = cli.deps.Settings.Get(ctx)
			if err != nil {
				return err
			}
			return cli.printConfig(sc)
		},
	}
	set.Flags().StringVar(&testsID, "tests", "", "id of the tests spreadsheet")
	set.Flags().StringVar(&attendanceID, "attendance", "", "id of the attendance spreadsheet")

	cmd.AddCommand(get, set)
	return cmd
}

func (cli *commandLine) printConfig(sc settings.SourceConfig) error {
	return cli.print(sc, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "tests: %s\nattendance: %s\n", sc.TestsSourceID, sc.AttendanceSourceID)
	})
}

func (cli *commandLine) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the class dashboard figures and top rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := cli.deps.Roster.Snapshot()
			out := struct {
				Stats    roster.ClassStats                  `json:"stats"`
				Rankings roster.Page[roster.RankedResult] `json:"rankings"`
			}{
				Stats:    roster.Stats(snap),
				Rankings: roster.Paginate(roster.Rankings(snap.Tests), 1, roster.RankingsPerPage),
			}
			return cli.print(out, func(w io.Writer) {
				st := out.Stats
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintf(tw, "students\t%d\n", st.TotalStudents)
				_, _ = fmt.Fprintf(tw, "average score\t%.1f\n", st.AverageScore)
				_, _ = fmt.Fprintf(tw, "attendance rate\t%.1f%%\n", st.AttendanceRate)
				_, _ = fmt.Fprintf(tw, "pass rate\t%.1f%% (%d)\n", st.PassRate, st.PassCount)
				_, _ = fmt.Fprintf(tw, "critical\t%d\n", st.CriticalCount)
				_, _ = fmt.Fprintf(tw, "highest\t%d\n\n", st.HighestScore)
				for _, r := range out.Rankings.Items {
					_, _ = fmt.Fprintf(tw, "#%d\t%s\t%d\t%s\n", r.Rank, r.Name, r.Total, r.Grade)
				}
				_ = tw.Flush()
			})
		},
	}
}

func (cli *commandLine) reportCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Generate AI reports"}

	var email bool
	class := &cobra.Command{
		Use:  "class",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := cli.deps.Reports.GenerateClassReport(cmd.Context())
			if err != nil {
				return err
			}
			if email {
				if err = cli.deps.Reports.EmailClassReport(rep); err != nil {
					return err
				}
				// the process exits right after the command
				cli.deps.Mail.Wait()
			}
			return cli.print(rep, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "health score: %v\n\n%s\n\nweak topics: %s\n", rep.ClassHealthScore, rep.Summary, strings.Join(rep.WeakTopics, ", "))
				for i, a := range rep.TeachingAdvice {
					_, _ = fmt.Fprintf(w, "%d. %s\n", i+1, a)
				}
			})
		},
	}
	class.Flags().BoolVar(&email, "email", false, "also email the report to the instructor")

	student := &cobra.Command{
		Use:  "student ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := cli.deps.Reports.GenerateStudentReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.print(rep, func(w io.Writer) { printStudentReport(w, rep) })
		},
	}

	cmd.AddCommand(class, student)
	return cmd
}

func printStudentReport(w io.Writer, rep report.StudentReport) {
	section := func(title string, items []string) {
		_, _ = fmt.Fprintf(w, "%s:\n", title)
		for _, it := range items {
			_, _ = fmt.Fprintf(w, "- %s\n", it)
		}
	}
	_, _ = fmt.Fprintf(w, "student %s\n", rep.StudentID)
	section("problems", rep.ProblemsDetected)
	section("ideas", rep.ImprovementIdeas)
	section("weekly plan", rep.WeeklyActionPlan)
	section("drills", rep.TechnicalDrills)
	_, _ = fmt.Fprintf(w, "\n%s\n\n%s\n", rep.DetailedPlan, rep.ExpectedOutcome)
}

func (cli *commandLine) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "migrate",
		Short:       "Create the database and its tables if they do not exist",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipDeps: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cli.conf.Database.Engine == database.EngineInMem {
				_, _ = fmt.Fprintln(cli.out, "in-memory database: nothing to migrate")
				return nil
			}
			db, err := database.Setup(cmd.Context(), cli.conf)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "%s database migrated\n", cli.conf.Database.Engine)
			return db.Close()
		},
	}
}

// print writes v as indented JSON, or with text when the format is "text".
func (cli *commandLine) print(v interface{}, text func(w io.Writer)) error {
	if cli.format == "text" {
		text(cli.out)
		return nil
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fieldErrors translates validation errors to readable messages.
func fieldErrors(err error, deps *shared.Container) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+fe.Translate(deps.Translator))
	}
	return core.NewValidationError(errors.New(strings.Join(msgs, "; ")))
}
