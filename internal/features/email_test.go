package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEmailExclamations(t *testing.T) {
	f := ExtractEmail("Hello", "Win!! Now!! ", nil)
	assert.Equal(t, 4, f.ExclamationCount)
}

func TestExtractEmailEmptyText(t *testing.T) {
	f := ExtractEmail("", "", nil)

	assert.Equal(t, 0.0, f.CapitalRatio)
	assert.Equal(t, 0, f.Length)
	assert.Equal(t, 0, f.LinkCount)
	assert.Equal(t, 0, f.UrgentWordCount)
}

func TestExtractEmailLength(t *testing.T) {
	assert.Equal(t, 11, ExtractEmail("Hello", "World", nil).Length)
	assert.Equal(t, 5, ExtractEmail("Hello", "", nil).Length)
	assert.Equal(t, 4, ExtractEmail("", "Body", nil).Length)
}

func TestExtractEmailKeywordCounts(t *testing.T) {
	f := ExtractEmail(
		"URGENT: Action Required",
		"Your bank account password must be updated. See the attached invoice PDF.",
		[]string{"http://a.example", "http://b.example"},
	)

	assert.Equal(t, 2, f.LinkCount)
	// urgent, action required
	assert.Equal(t, 2, f.UrgentWordCount)
	// bank, password, account, update
	assert.Equal(t, 4, f.SuspiciousKeywordCount)
	// invoice, pdf
	assert.Equal(t, 2, f.AttachmentKeywordCount)
}

func TestCapitalRatio(t *testing.T) {
	assert.Equal(t, 0.0, CapitalRatio("1234 !!"))
	assert.Equal(t, 1.0, CapitalRatio("ABC"))
	assert.Equal(t, 0.5, CapitalRatio("AbCd"))
	assert.InDelta(t, 0.25, CapitalRatio("Abcd, éé"), 1e-9)
}
