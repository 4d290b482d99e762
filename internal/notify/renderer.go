package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/xeonx/timeago"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/markup"
)

const layout = `<html><body style="font-family: Arial, sans-serif;">
{% block content %}{% endblock %}
<p style="color:#888;font-size:12px;">This is an automated message from the support portal.</p>
</body></html>`

var sources = map[string][2]string{
	TemplateAssignedAgent: {
		"New Ticket Assigned: {{ ticket_number }} - {{ ticket_subject }}",
		`<p>Hello {{ recipient_name }},</p>
<p>A new ticket has been assigned to you:</p>
<ul>
<li><strong>Ticket:</strong> {{ ticket_number }}</li>
<li><strong>Subject:</strong> {{ ticket_subject }}</li>
<li><strong>Priority:</strong> {{ ticket_priority }}</li>
<li><strong>Customer:</strong> {{ customer_name }}</li>
<li><strong>Opened:</strong> {{ opened_ago }}</li>
</ul>
<p><a href="{{ ticket_url }}">View ticket</a></p>`,
	},
	TemplateAssignedCustomer: {
		"Your Ticket Has Been Assigned: {{ ticket_number }}",
		`<p>Hello {{ recipient_name }},</p>
<p>Your ticket <strong>{{ ticket_number }}</strong> ({{ ticket_subject }}) has been assigned to {{ agent_name|default:"a support agent" }}.</p>
<p><a href="{{ ticket_url }}">Follow your ticket</a></p>`,
	},
	StatusTemplate(domain.TicketStateInProgress): {
		"Ticket Status Updated: {{ ticket_number }} - {{ state_label }}",
		`<p>Hello {{ recipient_name }},</p>
<p>Work has started on your ticket <strong>{{ ticket_number }}</strong> ({{ ticket_subject }}).</p>
<p><a href="{{ ticket_url }}">View ticket</a></p>`,
	},
	StatusTemplate(domain.TicketStateResolved): {
		"Ticket Status Updated: {{ ticket_number }} - {{ state_label }}",
		`<p>Hello {{ recipient_name }},</p>
<p>Your ticket <strong>{{ ticket_number }}</strong> ({{ ticket_subject }}) has been resolved.</p>
{% if resolution_html %}<div><strong>Resolution:</strong>{{ resolution_html|safe }}</div>{% endif %}
<p>If the problem persists, reply on the ticket to reopen it.</p>
<p><a href="{{ ticket_url }}">View ticket</a></p>`,
	},
	StatusTemplate(domain.TicketStateClosed): {
		"Ticket Status Updated: {{ ticket_number }} - {{ state_label }}",
		`<p>Hello {{ recipient_name }},</p>
<p>Your ticket <strong>{{ ticket_number }}</strong> ({{ ticket_subject }}) has been closed after {{ days_open }} day{{ days_open|pluralize }}.</p>
<p><a href="{{ ticket_url }}">View ticket</a></p>`,
	},
	TemplateOverdueReminder: {
		"Overdue Ticket: {{ ticket_number }} - {{ ticket_subject }}",
		`<p>Hello {{ recipient_name }},</p>
<p>Reminder: This ticket has been open for {{ days_open }} days.</p>
<ul>
<li><strong>Ticket:</strong> {{ ticket_number }}</li>
<li><strong>Subject:</strong> {{ ticket_subject }}</li>
<li><strong>Status:</strong> {{ state_label }}</li>
<li><strong>Priority:</strong> {{ ticket_priority }}</li>
</ul>
<p><a href="{{ ticket_url }}">View ticket</a></p>`,
	},
	TemplateWelcome: {
		"Welcome to the Support Portal",
		`<p>Hello {{ recipient_name }},</p>
<p>An account has been created for you. Sign in with <strong>{{ login_email }}</strong> at <a href="{{ portal_url }}/login">{{ portal_url }}</a>.</p>
<p>Please change your password after your first login.</p>`,
	},
}

type compiled struct {
	subject *pongo2.Template
	body    *pongo2.Template
}

// Data feeds a template. Only the fields a template uses need to be set.
type Data struct {
	Recipient *domain.User
	Ticket    *domain.Ticket
	Agent     *domain.User
	Customer  *domain.User
	Now       time.Time
}

// Rendered is a ready-to-send subject and HTML body.
type Rendered struct {
	Subject string
	HTML    string
}

// Renderer renders notification mail from built-in pongo2 templates.
type Renderer struct {
	portalURL string
	templates map[string]compiled
}

// NewRenderer compiles every template; it panics on a broken template.
func NewRenderer(portalURL string) *Renderer {
	set := pongo2.NewSet("mail", pongo2.DefaultLoader)
	r := &Renderer{
		portalURL: strings.TrimRight(portalURL, "/"),
		templates: make(map[string]compiled, len(sources)),
	}
	for name, src := range sources {
		page := strings.Replace(layout, "{% block content %}{% endblock %}", src[1], 1)
		r.templates[name] = compiled{
			subject: pongo2.Must(set.FromString(src[0])),
			body:    pongo2.Must(set.FromString(page)),
		}
	}
	return r
}

// Has reports whether name is a known template.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes template name against data.
func (r *Renderer) Render(name string, data Data) (Rendered, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown template %q", name)
	}
	ctx := r.context(data)

	subject, err := tpl.subject.Execute(ctx)
	if err != nil {
		return Rendered{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	body, err := tpl.body.Execute(ctx)
	if err != nil {
		return Rendered{}, fmt.Errorf("render %s body: %w", name, err)
	}
	return Rendered{
		Subject: strings.TrimSpace(html.UnescapeString(subject)),
		HTML:    body,
	}, nil
}

func (r *Renderer) context(data Data) pongo2.Context {
	now := data.Now
	if now.IsZero() {
		now = time.Now()
	}
	ctx := pongo2.Context{"portal_url": r.portalURL}
	if u := data.Recipient; u != nil {
		ctx["recipient_name"] = u.Name
		ctx["login_email"] = u.Email
	}
	if u := data.Agent; u != nil {
		ctx["agent_name"] = u.Name
	}
	if u := data.Customer; u != nil {
		ctx["customer_name"] = u.Name
	}
	if t := data.Ticket; t != nil {
		ctx["ticket_number"] = t.Number
		ctx["ticket_subject"] = t.Subject
		ctx["ticket_priority"] = string(t.Priority)
		ctx["state_label"] = t.State.Label()
		ctx["ticket_url"] = fmt.Sprintf("%s/tickets/%s", r.portalURL, t.ID)
		ctx["opened_ago"] = timeago.English.Format(t.CreatedAt)
		ctx["days_open"] = t.DaysOpen(now)
		if strings.TrimSpace(t.ResolutionNotes) != "" {
			ctx["resolution_html"] = markup.MarkdownToHTML(t.ResolutionNotes)
		}
	}
	return ctx
}
