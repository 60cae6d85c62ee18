package notification

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const sesCharset = "UTF-8"

// SESClientAPI is the subset of the SES v2 client used by SESProvider.
type SESClientAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESProvider delivers notifications through Amazon SES.
type SESProvider struct {
	svc       SESClientAPI
	configSet string
}

// NewSESProvider wraps an existing SES client.
func NewSESProvider(svc SESClientAPI, configSet string) *SESProvider {
	return &SESProvider{svc: svc, configSet: configSet}
}

// NewSESProviderFromEnv builds an SES client from the default AWS credential
// chain (environment, shared config, instance role).
func NewSESProviderFromEnv(ctx context.Context, configSet string) (*SESProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewSESProvider(sesv2.NewFromConfig(cfg), configSet), nil
}

// Name returns the provider identifier.
func (p *SESProvider) Name() string { return "ses" }

// Send delivers msg as a simple SES message with HTML and text parts.
func (p *SESProvider) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("ses: empty recipient")
	}

	from := msg.FromAddr
	if msg.FromName != "" {
		from = (&netmail.Address{Name: msg.FromName, Address: msg.FromAddr}).String()
	}

	body := &types.Body{
		Html: &types.Content{Charset: aws.String(sesCharset), Data: aws.String(msg.HTML)},
	}
	if msg.Text != "" {
		body.Text = &types.Content{Charset: aws.String(sesCharset), Data: aws.String(msg.Text)}
	}

	input := &sesv2.SendEmailInput{
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		FromEmailAddress: aws.String(from),
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Charset: aws.String(sesCharset), Data: aws.String(msg.Subject)},
				Body:    body,
			},
		},
	}
	if p.configSet != "" {
		input.ConfigurationSetName = aws.String(p.configSet)
	}

	if _, err := p.svc.SendEmail(ctx, input); err != nil {
		var rejected *types.MessageRejected
		var unverified *types.MailFromDomainNotVerifiedException
		switch {
		case errors.As(err, &rejected):
			return fmt.Errorf("ses: message to %s rejected: %s", msg.To, aws.ToString(rejected.Message))
		case errors.As(err, &unverified):
			return fmt.Errorf("ses: mail-from domain not verified: %s", aws.ToString(unverified.Message))
		default:
			return fmt.Errorf("ses: sending to %s: %w", msg.To, err)
		}
	}
	return nil
}
