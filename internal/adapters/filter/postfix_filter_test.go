package filter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/phish-guard/internal/core"
	"github.com/mikey/phish-guard/internal/whitelist"
)

type stubAssessor struct {
	mu         sync.Mutex
	assessment *core.RiskAssessment
	err        error
	subjects   []core.Subject
}

func (s *stubAssessor) Assess(ctx context.Context, subject core.Subject) (*core.RiskAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
	return s.assessment, s.err
}

func (s *stubAssessor) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subjects)
}

func verdict(score int) *core.RiskAssessment {
	h := score
	return &core.RiskAssessment{
		FinalScore:     score,
		Level:          core.Classify(score),
		Source:         core.SourceHeuristicOnly,
		HeuristicScore: &h,
	}
}

const sampleMessage = "From: Bank <alerts@bank.example>\r\n" +
	"To: victim@example.com\r\n" +
	"Subject: Account suspended\r\n" +
	"\r\n" +
	"Verify your password at http://bank-verify.example now\r\n"

func newTestFilter(t *testing.T, assessor *stubAssessor, opts PostfixOptions, trusted ...string) *PostfixFilter {
	t.Helper()
	logger := zaptest.NewLogger(t)
	opts.Headers = testHeaders
	return NewPostfixFilter(assessor, whitelist.NewChecker(trusted, logger), logger, opts)
}

func TestFilterMessageStampsHeaders(t *testing.T) {
	assessor := &stubAssessor{assessment: verdict(45)}
	f := newTestFilter(t, assessor, PostfixOptions{ModifySubject: true})

	result, err := f.filterMessage(context.Background(), "alerts@bank.example", []byte(sampleMessage))
	require.NoError(t, err)
	require.Nil(t, result.reject)

	out := string(result.message)
	assert.True(t, strings.HasPrefix(out, "X-Phish-Level: Suspicious\r\nX-Phish-Score: 45\r\nX-Phish-Source: heuristic-only\r\nX-Phish-Reason: "))
	assert.Contains(t, out, "Subject: Account suspended\r\n")
	assert.True(t, strings.HasSuffix(out, sampleMessage))

	require.Equal(t, 1, assessor.calls())
	email := assessor.subjects[0].(*core.EmailSubject)
	assert.Equal(t, "Account suspended", email.Subject)
	assert.Equal(t, []string{"http://bank-verify.example"}, email.Links)
}

func TestFilterMessageReplacesSenderVerdict(t *testing.T) {
	f := newTestFilter(t, &stubAssessor{assessment: verdict(85)}, PostfixOptions{})
	raw := "X-Phish-Level: Safe\r\nX-Phish-Score: 0\r\n" + sampleMessage

	result, err := f.filterMessage(context.Background(), "alerts@bank.example", []byte(raw))
	require.NoError(t, err)

	out := string(result.message)
	assert.Equal(t, 1, strings.Count(out, "X-Phish-Level:"))
	assert.Equal(t, 1, strings.Count(out, "X-Phish-Score:"))
	assert.Contains(t, out, "X-Phish-Level: Dangerous\r\n")
	assert.NotContains(t, out, "X-Phish-Level: Safe")
}

func TestFilterMessagePrefixesDangerousSubject(t *testing.T) {
	f := newTestFilter(t, &stubAssessor{assessment: verdict(85)}, PostfixOptions{ModifySubject: true})

	result, err := f.filterMessage(context.Background(), "alerts@bank.example", []byte(sampleMessage))
	require.NoError(t, err)

	out := string(result.message)
	assert.Contains(t, out, "Subject: [PHISHING] Account suspended\r\n")
	assert.NotContains(t, out, "Subject: Account suspended")
	assert.Contains(t, out, "X-Phish-Level: Dangerous\r\n")
}

func TestFilterMessageRejectsDangerous(t *testing.T) {
	f := newTestFilter(t, &stubAssessor{assessment: verdict(90)}, PostfixOptions{BlockDangerous: true})

	result, err := f.filterMessage(context.Background(), "alerts@bank.example", []byte(sampleMessage))
	require.NoError(t, err)
	require.NotNil(t, result.reject)
	assert.Equal(t, 550, result.reject.Code)
	assert.Contains(t, result.reject.Message, "score: 90")
}

func TestFilterMessageKeepsSuspiciousWhenBlocking(t *testing.T) {
	f := newTestFilter(t, &stubAssessor{assessment: verdict(50)}, PostfixOptions{BlockDangerous: true})

	result, err := f.filterMessage(context.Background(), "alerts@bank.example", []byte(sampleMessage))
	require.NoError(t, err)
	assert.Nil(t, result.reject)
	assert.NotEmpty(t, result.message)
}

func TestFilterMessageSkipsWhitelisted(t *testing.T) {
	assessor := &stubAssessor{assessment: verdict(90)}
	f := newTestFilter(t, assessor, PostfixOptions{BlockDangerous: true}, "bank.example")

	result, err := f.filterMessage(context.Background(), "alerts@mail.bank.example", []byte(sampleMessage))
	require.NoError(t, err)
	assert.Nil(t, result.reject)
	assert.Equal(t, sampleMessage, string(result.message))
	assert.Zero(t, assessor.calls())
}

func TestFilterMessageIgnoresWhitelistedFromHeader(t *testing.T) {
	assessor := &stubAssessor{assessment: verdict(90)}
	f := newTestFilter(t, assessor, PostfixOptions{BlockDangerous: true}, "bank.example")

	result, err := f.filterMessage(context.Background(), "mailer@attacker.example", []byte(sampleMessage))
	require.NoError(t, err)
	assert.Equal(t, 1, assessor.calls())
	require.NotNil(t, result.reject)
	assert.Equal(t, 550, result.reject.Code)
}

func TestFilterMessageDeliversOnAssessmentError(t *testing.T) {
	assessor := &stubAssessor{err: errors.New("cache down")}
	f := newTestFilter(t, assessor, PostfixOptions{BlockDangerous: true})

	result, err := f.filterMessage(context.Background(), "x@example.com", []byte(sampleMessage))
	require.NoError(t, err)
	assert.Nil(t, result.reject)
	assert.True(t, strings.HasPrefix(string(result.message), "X-Phish-Analysis-Error: cache down\r\n"))
}

// captureBackend is a stand-in for the Postfix re-injection port
type captureBackend struct {
	mu       sync.Mutex
	messages [][]byte
	received chan struct{}
}

func (b *captureBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &captureSession{backend: b}, nil
}

type captureSession struct {
	backend *captureBackend
}

func (s *captureSession) Reset()        {}
func (s *captureSession) Logout() error { return nil }
func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	return nil
}
func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	return nil
}
func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, data)
	s.backend.mu.Unlock()
	s.backend.received <- struct{}{}
	return nil
}

// sendPlain submits sampleMessage without STARTTLS
func sendPlain(t *testing.T, addr string) error {
	t.Helper()
	c, err := smtp.Dial(addr)
	require.NoError(t, err)
	defer c.Close()
	return c.SendMail("alerts@bank.example", []string{"victim@example.com"}, strings.NewReader(sampleMessage))
}

func TestPostfixFilterEndToEnd(t *testing.T) {
	capture := &captureBackend{received: make(chan struct{}, 1)}
	downstream := smtp.NewServer(capture)
	downstream.Domain = "localhost"
	downstream.AllowInsecureAuth = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = downstream.Serve(ln) }()
	t.Cleanup(func() { downstream.Close() })

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	f := newTestFilter(t, &stubAssessor{assessment: verdict(20)}, PostfixOptions{
		ListenAddr:     "127.0.0.1:0",
		PostfixEnabled: true,
		PostfixAddr:    host,
		PostfixPort:    port,
	})
	require.NoError(t, f.Start())
	t.Cleanup(func() { f.Stop() })

	err = sendPlain(t, f.Addr().String())
	require.NoError(t, err)

	select {
	case <-capture.received:
	case <-time.After(5 * time.Second):
		t.Fatal("message was not re-injected")
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	require.Len(t, capture.messages, 1)
	assert.True(t, bytes.HasPrefix(capture.messages[0], []byte("X-Phish-Level: Safe\r\n")))
	assert.Contains(t, string(capture.messages[0]), "Subject: Account suspended\r\n")
}

func TestPostfixFilterRejectsOverSMTP(t *testing.T) {
	f := newTestFilter(t, &stubAssessor{assessment: verdict(95)}, PostfixOptions{
		ListenAddr:     "127.0.0.1:0",
		BlockDangerous: true,
	})
	require.NoError(t, f.Start())
	t.Cleanup(func() { f.Stop() })

	err := sendPlain(t, f.Addr().String())
	var smtpErr *smtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	assert.Equal(t, 550, smtpErr.Code)
}
