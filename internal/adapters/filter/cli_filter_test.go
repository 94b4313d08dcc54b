package filter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/phish-guard/internal/core"
)

func TestParseEmail(t *testing.T) {
	email, err := ParseEmail(strings.NewReader(sampleMessage))
	require.NoError(t, err)
	assert.Equal(t, "Account suspended", email.Subject)
	assert.Contains(t, email.Body, "Verify your password")
	assert.Equal(t, []string{"http://bank-verify.example"}, email.Links)

	_, err = ParseEmail(strings.NewReader(""))
	assert.Error(t, err)
}

func TestCliFilterReportsURL(t *testing.T) {
	ml := 80
	a := verdict(74)
	a.Source = core.SourceCombined
	a.MLScore = &ml
	a.Indicators = []string{"ip_literal(+25)"}

	f := NewCliFilter(&stubAssessor{assessment: a}, zaptest.NewLogger(t), true)
	var out bytes.Buffer
	f.SetOutput(&out)

	got, err := f.ProcessURL(context.Background(), &core.PageSubject{URL: "http://192.168.0.1/login", PageText: "Sign in"})
	require.NoError(t, err)
	assert.Same(t, a, got)

	report := out.String()
	assert.Contains(t, report, "URL: http://192.168.0.1/login")
	assert.Contains(t, report, "Risk level: Dangerous")
	assert.Contains(t, report, "Risk score: 74")
	assert.Contains(t, report, "ML score: 80")
	assert.Contains(t, report, "Indicators: ip_literal(+25)")
	assert.Contains(t, report, "Explanation: "+core.Explain(a))
}

func TestCliFilterReportsError(t *testing.T) {
	f := NewCliFilter(&stubAssessor{err: errors.New("boom")}, zaptest.NewLogger(t), false)
	var out bytes.Buffer
	f.SetOutput(&out)

	_, err := f.ProcessEmail(context.Background(), &core.EmailSubject{Subject: "s", Body: "b"})
	assert.Error(t, err)
	assert.Contains(t, out.String(), "Error: boom")
}
