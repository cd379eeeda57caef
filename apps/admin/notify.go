package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/notification"
)

type notifier interface {
	Notify(ctx context.Context, ev notification.Event) (notification.Summary, error)
}

type notifyOptions struct {
	school, kind, scope, id, ids, data, url *string
}

func (cli *commandLine) notify(opts notifyOptions) error {
	data, err := parseData(*opts.data)
	if err != nil {
		return err
	}
	ne := notification.NewEvent{
		Kind: notification.EventKind(*opts.kind),
		Scope: notification.Scope{
			Kind: notification.ScopeKind(*opts.scope),
			ID:   *opts.id,
			IDs:  splitList(*opts.ids),
		},
		Data:      data,
		TargetURL: *opts.url,
	}
	if err := ne.Validate(cli.validate); err != nil {
		return err
	}

	summary, err := cli.notifier.Notify(context.Background(), ne.Event(core.CleanString(*opts.school)))
	if err != nil {
		return errors.Wrap(err, "notifying")
	}

	_, _ = fmt.Fprintf(cli.out, "notified %d/%d recipients\n", summary.Notified, summary.TotalRecipients)
	for _, o := range summary.Outcomes {
		_, _ = fmt.Fprintf(cli.out, "  %s\temail=%s\tpush=%s\n", o.RecipientID, o.Email, o.Push)
	}
	return nil
}

// parseData reads "k1=v1,k2=v2" pairs.
func parseData(s string) (map[string]string, error) {
	data := make(map[string]string)
	for _, pair := range splitList(s) {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.Errorf("invalid data pair %q, want key=value", pair)
		}
		data[k] = strings.TrimSpace(v)
	}
	return data, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return core.CleanStrings(strings.Split(s, ","))
}
