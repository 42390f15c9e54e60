package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/member-registry/pkg/mailer"
	mailtpl "github.com/oksasatya/member-registry/pkg/mailer/templates"
)

// DefaultSubject is used when a job carries neither a subject nor a template.
func DefaultSubject(data map[string]any) string {
	switch strings.ToLower(fmt.Sprintf("%v", data["Type"])) {
	case mailtpl.RegistrationConfirmation:
		return "Your registration is confirmed"
	case mailtpl.RenewalReminder:
		return "Your membership is due for renewal"
	default:
		return "Notification"
	}
}

// EnsureRecipient fills the template's recipient and type from the job.
func EnsureRecipient(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
	if v, ok := job.Data["Type"]; (!ok || fmt.Sprintf("%v", v) == "") && job.Template != "" {
		job.Data["Type"] = job.Template
	}
}
