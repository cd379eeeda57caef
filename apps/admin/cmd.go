package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/koda-tec/sistema-escolar/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf     *core.Config
	db       *sqlx.DB // nil for commands that do not need it
	notifier notifier
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]  - run a goose command (up, down, status, version, ...)")
	_, _ = fmt.Fprintln(cli.out, "  vapidkeys               - generate a VAPID key pair for web push")
	_, _ = fmt.Fprintln(cli.out, "  notify -school ID -kind KIND -scope SCOPE [-id ID] [-ids A,B] [-data K=V,...] [-url URL]")
	_, _ = fmt.Fprintln(cli.out, "                          - fan one event out to the recipients of a school")
}

// needsDB reports whether the command in args talks to the database.
func needsDB(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "migrate", "notify":
		return true
	}
	return false
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	notifyCmd := flag.NewFlagSet("notify", flag.ContinueOnError)
	notifyCmd.SetOutput(cli.out)
	notifyOpts := notifyOptions{
		school: notifyCmd.String("school", "", "The school whose identities are targeted."),
		kind:   notifyCmd.String("kind", "", "The event kind, e.g. communication-published."),
		scope:  notifyCmd.String("scope", "", "The scope kind: whole-institution, course, single-student, single-identity or explicit-list."),
		id:     notifyCmd.String("id", "", "The course, student or identity id of the scope."),
		ids:    notifyCmd.String("ids", "", "Comma separated identity ids of an explicit-list scope."),
		data:   notifyCmd.String("data", "", "Comma separated template data, e.g. title=Reunión,date=12/05."),
		url:    notifyCmd.String("url", "", "Overrides the link of the event kind."),
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "vapidkeys":
		return cli.vapidKeys()
	case "notify":
		if err := notifyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *notifyOpts.school == "" || *notifyOpts.kind == "" || *notifyOpts.scope == "" {
			notifyCmd.Usage()
			return errHelp
		}
		return cli.notify(notifyOpts)
	default:
		cli.printUsage()
		return errHelp
	}
}
