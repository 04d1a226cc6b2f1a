package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

const (
	communicationScope = "https://communication.azure.com//.default"
	emailAPIVersion    = "2023-03-31"
)

// EmailService sends mail through the Azure Communication Services REST API.
type EmailService struct {
	endpoint   string
	sender     string
	cred       azcore.TokenCredential
	httpClient *http.Client
}

// NewEmailService creates a new EmailService instance.
// If cred is nil, it defaults to using DefaultAzureCredential.
func NewEmailService(endpoint, sender string, cred azcore.TokenCredential) (*EmailService, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("COMMUNICATION_SERVICES_ENDPOINT environment variable is required")
	}
	if sender == "" {
		return nil, fmt.Errorf("SENDER_EMAIL environment variable is required")
	}

	if cred == nil {
		var err error
		cred, err = newDefaultAzureCredential("email")
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
	}

	return &EmailService{
		endpoint:   endpoint,
		sender:     sender,
		cred:       cred,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type emailAddress struct {
	Address string `json:"address"`
}

type emailRecipients struct {
	To []emailAddress `json:"to"`
}

type emailContent struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type emailRequest struct {
	SenderAddress string          `json:"senderAddress"`
	Content       emailContent    `json:"content"`
	Recipients    emailRecipients `json:"recipients"`
}

// SendEmail sends an HTML email to the given recipients.
func (s *EmailService) SendEmail(ctx context.Context, to []string, subject, body string) error {
	token, err := s.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{communicationScope},
	})
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	recipients := make([]emailAddress, len(to))
	for i, email := range to {
		recipients[i] = emailAddress{Address: email}
	}

	jsonBody, err := json.Marshal(emailRequest{
		SenderAddress: s.sender,
		Content:       emailContent{Subject: subject, HTML: body},
		Recipients:    emailRecipients{To: recipients},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	url := fmt.Sprintf("%s/emails:send?api-version=%s", s.endpoint, emailAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	slog.Info("email sent successfully", "recipients", to, "subject", subject)
	return nil
}

// SendErrorEmail reports a ledger upload that produced no usable rows.
func (s *EmailService) SendErrorEmail(ctx context.Context, recipients []string, filename string, errors []string) error {
	subject := fmt.Sprintf("Ledger Analyzer - Upload of %s failed", filename)
	return s.SendEmail(ctx, recipients, subject, RenderErrorBody(filename, errors))
}

// SendDigestEmail sends the monthly spending digest.
func (s *EmailService) SendDigestEmail(ctx context.Context, recipients []string, digest Digest) error {
	subject := fmt.Sprintf("Ledger Analyzer - Monthly digest %s", digest.Month)
	return s.SendEmail(ctx, recipients, subject, RenderDigestBody(digest))
}
