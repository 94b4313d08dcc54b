package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/core"
	"github.com/mikey/phish-guard/internal/ports"
	"github.com/mikey/phish-guard/internal/whitelist"
)

// PostfixOptions configures a PostfixFilter
type PostfixOptions struct {
	ListenAddr      string
	BlockDangerous  bool
	Headers         HeaderNames
	PostfixAddr     string
	PostfixPort     int
	PostfixEnabled  bool
	SubjectPrefix   string
	ModifySubject   bool
	AnalysisTimeout time.Duration
}

// PostfixFilter implements a Postfix content filter
type PostfixFilter struct {
	assessor  ports.Assessor
	whitelist *whitelist.Checker
	logger    *zap.Logger
	opts      PostfixOptions
	server    *smtp.Server
	listener  net.Listener
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	assessor ports.Assessor,
	whitelist *whitelist.Checker,
	logger *zap.Logger,
	opts PostfixOptions,
) *PostfixFilter {
	// If subject prefix is not set but modify subject is enabled, use default prefix
	if opts.SubjectPrefix == "" && opts.ModifySubject {
		opts.SubjectPrefix = "[PHISHING] "
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = 15 * time.Second
	}

	return &PostfixFilter{
		assessor:  assessor,
		whitelist: whitelist,
		logger:    logger,
		opts:      opts,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.opts.ListenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", f.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.opts.ListenAddr, err)
	}

	f.listener = listener

	f.logger.Info("Postfix filter starting", zap.String("address", listener.Addr().String()))

	go func() {
		if err := f.server.Serve(listener); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the address the filter listens on once started
func (f *PostfixFilter) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail assesses an email without any SMTP exchange
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.EmailSubject) (*core.RiskAssessment, error) {
	return f.assessor.Assess(ctx, email)
}

// filterResult is what happens to one message
type filterResult struct {
	message []byte
	reject  *smtp.SMTPError
}

// filterMessage assesses a raw message and produces the message to forward
// or the rejection to return
func (f *PostfixFilter) filterMessage(ctx context.Context, sender string, raw []byte) (filterResult, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return filterResult{}, fmt.Errorf("failed to parse email message: %w", err)
	}

	// only the envelope sender, the From header is set by the sender
	if f.whitelist != nil && f.whitelist.IsWhitelisted(sender) {
		f.logger.Info("Skipping whitelisted sender", zap.String("sender", sender))
		return filterResult{message: raw}, nil
	}

	email := emailFromMessage(msg)

	ctx, cancel := context.WithTimeout(ctx, f.opts.AnalysisTimeout)
	defer cancel()

	assessment, err := f.assessor.Assess(ctx, email)
	if err != nil {
		f.logger.Error("Failed to assess email",
			zap.Error(err),
			zap.String("sender", sender))
		// deliver unassessed mail rather than lose it
		fields := []headerField{{analysisErrorHeader, headerSafe(err.Error())}}
		return filterResult{message: rewriteMessage(raw, fields, "", f.opts.Headers.names()...)}, nil
	}

	dangerous := assessment.Level == core.LevelDangerous
	if dangerous && f.opts.BlockDangerous {
		f.logger.Info("Rejecting dangerous email",
			zap.String("sender", sender),
			zap.Int("score", assessment.FinalScore),
			zap.String("source", string(assessment.Source)))
		return filterResult{reject: &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as phishing (score: %d)", assessment.FinalScore),
		}}, nil
	}

	newSubject := ""
	if dangerous && f.opts.ModifySubject && !strings.HasPrefix(email.Subject, f.opts.SubjectPrefix) {
		newSubject = mime.QEncoding.Encode("utf-8", f.opts.SubjectPrefix+email.Subject)
	}

	f.logger.Info("Processed email",
		zap.String("sender", sender),
		zap.String("level", assessment.Level.String()),
		zap.Int("score", assessment.FinalScore),
		zap.String("source", string(assessment.Source)))

	return filterResult{
		message: rewriteMessage(raw, assessmentHeaders(f.opts.Headers, assessment), newSubject, analysisErrorHeader),
	}, nil
}

// sendToPostfix sends the processed email back to Postfix on the configured port using go-smtp
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.opts.PostfixAddr, fmt.Sprintf("%d", f.opts.PostfixPort))

	// Get hostname for EHLO
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// the message is already accepted
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data assesses the message and forwards it to Postfix
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	result, err := s.filter.filterMessage(context.Background(), s.sender, raw)
	if err != nil {
		s.filter.logger.Error("Failed to filter message", zap.Error(err), zap.String("sender", s.sender))
		return err
	}
	if result.reject != nil {
		return result.reject
	}

	if !s.filter.opts.PostfixEnabled {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
		return nil
	}

	if err := s.filter.sendToPostfix(s.sender, s.recipients, result.message); err != nil {
		s.filter.logger.Error("Failed to send email back to Postfix",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
