// backend/src/services/batch_notifier.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/rentledger/backend/src/config"
	"github.com/username/rentledger/backend/src/logger"
	"github.com/username/rentledger/backend/src/models"
)

func NewBatchNotifier() BatchNotifier {
	if config.Cfg == nil {
		logger.L.Warn("Configuration (config.Cfg) is nil. Batch notifier disabled.")
		return &NoopNotifier{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing batch notifier", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.ReportRecipientEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or recipient missing). Batch notifier disabled.")
			return &NoopNotifier{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunNotifier{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
			recipient:   config.Cfg.ReportRecipientEmail,
		}
	default:
		return &NoopNotifier{}
	}
}

// NoopNotifier is used when no email provider is configured.
type NoopNotifier struct{}

func (n *NoopNotifier) NotifyBatchCommitted(report *models.BatchReport) error {
	logger.L.Debug("Batch notification skipped (no provider configured)", "batchID", report.BatchID)
	return nil
}

// MailgunNotifier mails the batch report summary after every commit.
type MailgunNotifier struct {
	mg          *mailgun.MailgunImpl
	senderEmail string
	senderName  string
	recipient   string
}

func (n *MailgunNotifier) NotifyBatchCommitted(report *models.BatchReport) error {
	from := fmt.Sprintf("%s <%s>", n.senderName, n.senderEmail)
	subject := fmt.Sprintf("Import committed: %s (%s)", report.SourceFile, report.Channel)

	var body strings.Builder
	fmt.Fprintf(&body, "Batch %s for administration %s committed.\n\n", report.BatchID, report.Administration)
	fmt.Fprintf(&body, "Rows parsed: %d\nInserted: %d\nUpdated: %d\nSkipped: %d\nWarnings: %d\n",
		report.RowsParsed, report.RowsInserted, report.RowsUpdated, report.RowsSkipped, report.WarningsTotal)
	if len(report.Issues) > 0 {
		fmt.Fprintf(&body, "\nFirst issues:\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&body, "- line %d: %s (%s)\n", issue.Line, issue.Reason, issue.Detail)
		}
	}

	message := n.mg.NewMessage(from, subject, body.String(), n.recipient)
	message.AddTag("batch-report")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	resp, id, err := n.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send batch report via Mailgun", "error", err, "batchID", report.BatchID, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	logger.L.Info("Batch report sent via Mailgun", "batchID", report.BatchID, "id", id)
	return nil
}
