package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type Template string

const (
	TemplateNewMessage         Template = "new_message.html"
	TemplateJoinRequest        Template = "join_request.html"
	TemplateMembershipAccepted Template = "membership_accepted.html"
	TemplateReviewReceived     Template = "review_received.html"
	TemplateSupportResponse    Template = "support_response.html"
)

// Data is the view model shared by all notification templates.
type Data struct {
	RecipientName string
	ActorName     string
	ProductName   string
	Snippet       string
	Rating        int
	Link          string
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustRenderer panics if the embedded templates do not parse.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Render(name Template, data Data) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, string(name), data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
