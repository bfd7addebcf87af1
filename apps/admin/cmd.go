package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/trezcool/maendeleo/apps"
	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf        *core.Config
	openService func() (*progress.Service, error)
	openDB      func() (*sql.DB, error)
	out         io.Writer
	color       bool

	// set by the first view command
	svc    *progress.Service
	loader *progress.Loader
}

// service opens the progress source on first use, so migrate & createdb run without one.
func (cli *commandLine) service() (*progress.Service, error) {
	if cli.svc == nil {
		svc, err := cli.openService()
		if err != nil {
			return nil, err
		}
		cli.svc, cli.loader = svc, progress.NewLoader(svc)
	}
	return cli.svc, nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]                      - run a goose command over the embedded migrations")
	fmt.Fprintln(cli.out, "  createdb                                       - create the app database user & database if missing")
	fmt.Fprintln(cli.out, "  classes [-json]                                - list classes and their sections")
	fmt.Fprintln(cli.out, "  summary -class CLASS [-section S] [-ordering F] [-json] - rank a class or section")
	fmt.Fprintln(cli.out, "  student -id ID [-json]                         - show a student's progress")
	fmt.Fprintln(cli.out, "  compare -a ID [-b ID] [-json]                  - compare two students")
	fmt.Fprintln(cli.out, "  sections -class CLASS -a S [-b S] [-json]      - compare two sections of a class")
	fmt.Fprintln(cli.out, "  timeline -class CLASS [-json]                  - show a class exam timeline")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "createdb":
		return cli.createDB()

	case "classes":
		fs := cli.newFlagSet("classes")
		asJSON := fs.Bool("json", false, "Print JSON instead of a table.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		return cli.show(ctx, progress.Selection{Kind: progress.ViewClasses}, *asJSON)

	case "summary":
		fs := cli.newFlagSet("summary")
		class := fs.String("class", "", "The class to rank.")
		section := fs.String("section", "", "Only rank this section.")
		ordering := fs.String("ordering", "", "Display ordering, e.g. name,-average (default: rank).")
		asJSON := fs.Bool("json", false, "Print JSON instead of a table.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*class) == "" {
			fs.Usage()
			return errHelp
		}
		orderings, err := progress.ParseOrderings(*ordering)
		if err != nil {
			return apps.NewArgumentError(err.Error())
		}
		sel := progress.Selection{Kind: progress.ViewCohort, Class: *class, Section: *section}
		return cli.show(ctx, sel, *asJSON, orderings...)

	case "student":
		fs := cli.newFlagSet("student")
		id := fs.String("id", "", "The student id.")
		asJSON := fs.Bool("json", false, "Print JSON instead of a table.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*id) == "" {
			fs.Usage()
			return errHelp
		}
		return cli.show(ctx, progress.Selection{Kind: progress.ViewStudent, Student: *id}, *asJSON)

	case "compare":
		fs := cli.newFlagSet("compare")
		a := fs.String("a", "", "The first student id.")
		b := fs.String("b", "", "The second student id (optional).")
		asJSON := fs.Bool("json", false, "Print JSON instead of a table.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*a) == "" {
			fs.Usage()
			return errHelp
		}
		sel := progress.Selection{Kind: progress.ViewStudents, Student: *a, StudentB: *b}
		return cli.show(ctx, sel, *asJSON)

	case "sections":
		fs := cli.newFlagSet("sections")
		class := fs.String("class", "", "The class.")
		a := fs.String("a", "", "The first section.")
		b := fs.String("b", "", "The second section (optional).")
		asJSON := fs.Bool("json", false, "Print JSON instead of a table.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*class) == "" || strings.TrimSpace(*a) == "" {
			fs.Usage()
			return errHelp
		}
		sel := progress.Selection{Kind: progress.ViewSections, Class: *class, Section: *a, SectionB: *b}
		return cli.show(ctx, sel, *asJSON)

	case "timeline":
		fs := cli.newFlagSet("timeline")
		class := fs.String("class", "", "The class.")
		asJSON := fs.Bool("json", false, "Print JSON instead of a table.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*class) == "" {
			fs.Usage()
			return errHelp
		}
		return cli.show(ctx, progress.Selection{Kind: progress.ViewTimeline, Class: *class}, *asJSON)

	default:
		cli.printUsage()
		return errHelp
	}
}

// show loads sel and prints it.
func (cli *commandLine) show(ctx context.Context, sel progress.Selection, asJSON bool, orderings ...progress.Ordering) error {
	svc, err := cli.service()
	if err != nil {
		return err
	}
	sel.Class = strings.TrimSpace(sel.Class)
	if sel.Class != "" {
		if err = cli.checkClass(ctx, svc, sel.Class); err != nil {
			return err
		}
	}

	view, ok, err := cli.loader.Load(ctx, sel)
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			return apps.NewArgumentError(err.Error())
		}
		return err
	}
	if !ok { // overtaken by a newer selection
		return nil
	}
	if view.Cohort != nil && len(orderings) > 0 {
		view.Cohort.Students = progress.OrderSummaries(view.Cohort.Students, orderings)
	}

	if asJSON {
		return cli.printJSON(view)
	}
	cli.render(view)
	return nil
}

// checkClass rejects unknown class names, suggesting the closest known one.
func (cli *commandLine) checkClass(ctx context.Context, svc *progress.Service, class string) error {
	classes, err := svc.Classes(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		if strings.EqualFold(c.Class, class) {
			return nil
		}
		names = append(names, c.Class)
	}
	msg := fmt.Sprintf("unknown class %q", class)
	if match, ok := closestMatch(class, names); ok {
		msg += fmt.Sprintf(", did you mean %q?", match)
	}
	return apps.NewArgumentError(msg)
}
