package mailer

import "embed"

const (
	FromName            = "Fanfare"
	maxRetries          = 3
	ReportAlertTemplate = "report_alert.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
