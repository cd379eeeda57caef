package notification

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

var ErrUnknownKind = errors.New("unknown event kind")

// kindTemplate holds the texts of one EventKind.
// Every field is a text/template executed against Event.Data.
type kindTemplate struct {
	title string
	body  string
	path  string // link relative to the frontend
}

var kindTemplates = map[EventKind]kindTemplate{
	KindAttendanceAbsence: {
		title: `Inasistencia registrada`,
		body:  `{{or .student "Su hijo/a"}} fue registrado/a como ausente{{with .course}} en {{.}}{{end}} el día {{or .date "de hoy"}}.`,
		path:  `/dashboard/asistencia`,
	},
	KindCommunicationPublished: {
		title: `Nuevo comunicado: {{or .title "Comunicado"}}`,
		body:  `{{or .author "La institución"}} publicó un nuevo comunicado{{with .course}} para {{.}}{{end}}.`,
		path:  `/dashboard/comunicados{{with .communication_id}}/{{.}}{{end}}`,
	},
	KindReportCardUploaded: {
		title: `Nuevo boletín disponible`,
		body:  `Ya está disponible el boletín de {{or .student "su hijo/a"}}{{with .period}} correspondiente a {{.}}{{end}}.`,
		path:  `/dashboard/boletines`,
	},
	KindPaymentApproved: {
		title: `Pago aprobado`,
		body:  `Recibimos el pago de la suscripción {{or .plan "de la institución"}}{{with .paid_until}}. Vigente hasta {{.}}{{end}}.`,
		path:  `/dashboard/suscripcion`,
	},
	KindAccountLinked: {
		title: `Cuenta vinculada`,
		body:  `Tu cuenta fue vinculada a {{or .student "un estudiante"}}{{with .school}} en {{.}}{{end}}.`,
		path:  `/dashboard`,
	},
	KindRequestResponded: {
		title: `Tu solicitud fue respondida`,
		body:  `{{or .responder "La institución"}} respondió tu solicitud "{{or .subject "sin asunto"}}"{{with .status}}: {{.}}{{end}}.`,
		path:  `/dashboard/solicitudes`,
	},
	KindStaffAssignmentChanged: {
		title: `Cambio de asignación`,
		body:  `Fuiste asignado/a {{with .role}}como {{.}} {{end}}en {{or .course "un curso"}}.`,
		path:  `/dashboard/cursos`,
	},
}

// parsed once at init; a bad template is a programming error
var compiled = mustCompile(kindTemplates)

type compiledKind struct {
	title, body, path *template.Template
}

func mustCompile(src map[EventKind]kindTemplate) map[EventKind]compiledKind {
	out := make(map[EventKind]compiledKind, len(src))
	for kind, kt := range src {
		parse := func(field, text string) *template.Template {
			return template.Must(template.New(string(kind) + "." + field).Option("missingkey=zero").Parse(text))
		}
		out[kind] = compiledKind{
			title: parse("title", kt.title),
			body:  parse("body", kt.body),
			path:  parse("path", kt.path),
		}
	}
	return out
}

// KnownKind reports whether kind has registered texts.
func KnownKind(kind EventKind) bool {
	_, ok := compiled[kind]
	return ok
}

// content is the rendered, channel-independent part of a notification.
type content struct {
	title       string
	body        string
	url         string // as given to push, relative when possible
	absoluteURL string // used in emails
}

func (c content) push() PushMessage {
	return PushMessage{Title: c.title, Body: c.body, URL: c.url}
}

// render builds the texts and link of ev.
func render(ev Event, site core.Site) (content, error) {
	ck, ok := compiled[ev.Kind]
	if !ok {
		return content{}, errors.Wrapf(ErrUnknownKind, "%q", ev.Kind)
	}

	data := ev.Data
	if data == nil {
		data = map[string]string{}
	}
	exec := func(t *template.Template) (string, error) {
		var buff bytes.Buffer
		if err := t.Execute(&buff, data); err != nil {
			return "", errors.Wrapf(err, "executing %s", t.Name())
		}
		return strings.TrimSpace(buff.String()), nil
	}

	var (
		c   content
		err error
	)
	if c.title, err = exec(ck.title); err != nil {
		return content{}, err
	}
	if c.body, err = exec(ck.body); err != nil {
		return content{}, err
	}
	c.url = core.CleanString(ev.TargetURL)
	if c.url == "" {
		if c.url, err = exec(ck.path); err != nil {
			return content{}, err
		}
	}
	c.absoluteURL = absoluteURL(site.FrontendBaseURL, c.url)
	return c, nil
}

func absoluteURL(base, link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return strings.TrimRight(base, "/") + link
}
