// Package email — ses.go: транспорт AWS SES v2 (или совместимый эндпоинт).
package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSender отправляет письма через SES v2.
type SESSender struct {
	client *sesv2.Client
	from   string
}

// SESConfig — параметры подключения к SES.
type SESConfig struct {
	Region          string
	Endpoint        string // Пустой — стандартный эндпоинт AWS
	AccessKeyID     string
	SecretAccessKey string
	From            string
}

func NewSESSender(ctx context.Context, cfg SESConfig) (*SESSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка конфигурации SES: %w", err)
	}

	client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &SESSender{client: client, from: cfg.From}, nil
}

// Send отправляет письмо с plain-text и HTML-частями.
func (s *SESSender) Send(ctx context.Context, recipient, subject, textBody, htmlBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: &s.from,
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Text: &types.Content{Data: &textBody},
					Html: &types.Content{Data: &htmlBody},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ошибка отправки через SES: %w", err)
	}
	return nil
}
