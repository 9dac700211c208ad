package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
)

// PDFConverter turns a letter page into a PDF
type PDFConverter interface {
	ConvertHTMLToPDF(ctx context.Context, html string) (io.ReadCloser, error)
}

type PDFService struct {
	client     *gotenberg.Client
	timeout    time.Duration
	maxRetries int
}

func NewPDFService(gotenbergURL string, timeoutStr string) (*PDFService, error) {
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
	}

	client, err := gotenberg.NewClient(gotenbergURL, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:     client,
		timeout:    timeout,
		maxRetries: 3,
	}, nil
}

// ConvertHTMLToPDF sends the page to Chromium through Gotenberg, retrying
// transient failures with a linear backoff.
func (s *PDFService) ConvertHTMLToPDF(ctx context.Context, html string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		body, err := s.convert(ctx, html)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert letter after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *PDFService) convert(ctx context.Context, html string) (io.ReadCloser, error) {
	convertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	index, err := document.FromString("index.html", html)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	resp, err := s.client.Send(convertCtx, gotenberg.NewHTMLRequest(index))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}

	// Read fully before the timeout context is cancelled
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read converted letter: %w", err)
	}
	return io.NopCloser(&buf), nil
}

var letterPage = template.Must(template.New("letter").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 2cm 2.5cm; }
body { font-family: "Times New Roman", serif; font-size: 12pt; line-height: 1.5; }
header { text-align: center; margin-bottom: 1.5em; }
header img { height: 80px; }
p { margin: 0 0 0.6em; white-space: pre-wrap; }
footer { margin-top: 2em; font-size: 9pt; color: #555; }
</style>
</head>
<body>
<header>{{if .LogoURL}}<img src="{{.LogoURL}}" alt="Logo">{{end}}<h3>{{.Title}}</h3><div>Nomor: {{.NomorSurat}}</div></header>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .VerificationCode}}<footer>Kode verifikasi: {{.VerificationCode}}</footer>{{end}}
</body>
</html>
`))

type letterPageData struct {
	Title            string
	NomorSurat       string
	LogoURL          string
	VerificationCode string
	Paragraphs       []string
}

// renderLetterPage wraps rendered letter text in a printable page. The text
// is escaped, so template authors cannot inject markup.
func renderLetterPage(data letterPageData, content string) (string, error) {
	for _, para := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n") {
		if strings.TrimSpace(para) != "" {
			data.Paragraphs = append(data.Paragraphs, para)
		}
	}

	var buf bytes.Buffer
	if err := letterPage.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render letter page: %w", err)
	}
	return buf.String(), nil
}
