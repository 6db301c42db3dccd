package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log"
	"text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"sundaytable/internal/models"
)

// HostNotifier is told about every newly confirmed dinner
type HostNotifier interface {
	NotifyHost(ctx context.Context, host models.Family, dinner models.Dinner) error
}

// sesSender is the part of the SES v2 client we call
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailConfig configures host notifications. An empty From disables sending.
type EmailConfig struct {
	Region   string
	From     string
	FromName string
	BaseURL  string
	Debug    bool
}

// EmailService tells the host family by email that their dinner is on
type EmailService struct {
	cfg    EmailConfig
	client sesSender
}

// NewEmailService builds an SES-backed notifier from the default AWS
// credential chain
func NewEmailService(ctx context.Context, cfg EmailConfig) (*EmailService, error) {
	if cfg.From == "" {
		log.Println("Host emails disabled: SES_FROM_EMAIL not configured")
		return &EmailService{cfg: cfg}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Debug {
		log.Printf("[DEBUG] SES client ready: region=%s from=%s", cfg.Region, cfg.From)
	}
	log.Printf("Host emails enabled: from=%s, region=%s", cfg.From, cfg.Region)

	return &EmailService{cfg: cfg, client: sesv2.NewFromConfig(awsCfg)}, nil
}

func (s *EmailService) IsEnabled() bool {
	return s.client != nil && s.cfg.From != ""
}

type hostEmail struct {
	Host      models.Family
	When      string
	Attending int
	Link      string
}

var hostSubject = template.Must(template.New("subject").Parse(
	`You're hosting Sunday dinner on {{.When}}`))

var hostText = template.Must(template.New("text").Parse(`Hi {{.Host.Name}},

Sunday dinner on {{.When}} is confirmed and it's your turn to host.
{{.Attending}} of the families have said they can come.

Meal ideas and the meal log: {{.Link}}
`))

var hostHTML = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Georgia, serif; color: #3d2b1f; line-height: 1.6;">
	<h1 style="color: #c17f5e;">{{.Host.Emoji}} Dinner is on!</h1>
	<p>Hi {{.Host.Name}},</p>
	<p>Sunday dinner on <strong>{{.When}}</strong> is confirmed and it's your turn to host.</p>
	<p>{{.Attending}} of the families have said they can come.</p>
	<p><a href="{{.Link}}">Open the planner</a> for meal ideas and to log what you made.</p>
</body>
</html>
`))

// NotifyHost emails the confirmed host. Families without an address are
// skipped.
func (s *EmailService) NotifyHost(ctx context.Context, host models.Family, dinner models.Dinner) error {
	if !s.IsEnabled() {
		if s.cfg.Debug {
			log.Printf("[DEBUG] Host emails disabled, not notifying %s for %s", host.ID, dinner.Date)
		}
		return nil
	}
	if host.Email == "" {
		log.Printf("Skipping host email: family %s has no address", host.ID)
		return nil
	}

	data := hostEmail{
		Host:      host,
		When:      dinner.Date.Time().Format("Monday 2 January 2006"),
		Attending: len(dinner.Available()),
		Link:      fmt.Sprintf("%s/#%s", s.cfg.BaseURL, dinner.Date),
	}
	var subject, text, body bytes.Buffer
	if err := hostSubject.Execute(&subject, data); err != nil {
		return fmt.Errorf("render subject: %w", err)
	}
	if err := hostText.Execute(&text, data); err != nil {
		return fmt.Errorf("render text body: %w", err)
	}
	if err := hostHTML.Execute(&body, data); err != nil {
		return fmt.Errorf("render html body: %w", err)
	}

	return s.send(ctx, host.Email, subject.String(), body.String(), text.String())
}

func (s *EmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	}
	utf8 := func(v string) *types.Content {
		return &types.Content{Data: aws.String(v), Charset: aws.String("UTF-8")}
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8(subject),
				Body:    &types.Body{Html: utf8(htmlBody), Text: utf8(textBody)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	if s.cfg.Debug {
		log.Printf("[DEBUG] SES message ID: %s", aws.ToString(out.MessageId))
	}
	log.Printf("Host email sent: to=%s, subject=%q", to, subject)
	return nil
}
