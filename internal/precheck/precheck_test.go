package precheck_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadhil-anwer/resume-analyzer/internal/precheck"
)

func resumeOfWords(n int, extra string) string {
	words := strings.Fields(extra)
	for len(words) < n {
		words = append(words, "shipped", "backend", "services", "daily")
	}
	return strings.Join(words[:n], " ")
}

func TestRun_ShortResumeFailsWithThreeMessages(t *testing.T) {
	t.Parallel()
	// Has the section names but no email and no bullets, and is far
	// under the length floor.
	text := resumeOfWords(50, "Experience Education")
	rep := precheck.Run(text)
	require.True(t, rep.Failed)
	assert.Len(t, rep.Feedback, 3)
	assert.Contains(t, rep.Feedback[0], "too short")
	joined := strings.Join(rep.Feedback, "\n")
	assert.Contains(t, joined, "bullet")
	assert.Contains(t, joined, "email")
}

func TestRun_GoodResumePasses(t *testing.T) {
	t.Parallel()
	text := resumeOfWords(400, "Experience Education - jane@example.com")
	rep := precheck.Run(text)
	assert.False(t, rep.Failed)
	assert.Empty(t, rep.Feedback)
}

func TestRun_TooLongFails(t *testing.T) {
	t.Parallel()
	text := resumeOfWords(1300, "Experience Education - jane@example.com")
	rep := precheck.Run(text)
	require.True(t, rep.Failed)
	assert.Contains(t, rep.Feedback[0], "too long")
}

func TestRun_MissingSectionsNamed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		seed string
		want string
	}{
		{name: "missing education", seed: "Experience - jane@example.com", want: "Missing key section(s): Education."},
		{name: "missing experience", seed: "Education - jane@example.com", want: "Missing key section(s): Experience."},
		{name: "missing both", seed: "- jane@example.com", want: "Missing key section(s): Experience, Education."},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rep := precheck.Run(resumeOfWords(400, tc.seed))
			require.True(t, rep.Failed)
			assert.Contains(t, rep.Feedback, tc.want)
		})
	}
}

func TestRun_DemographicTermsInformationalOnly(t *testing.T) {
	t.Parallel()
	text := resumeOfWords(400, "Experience Education married - jane@example.com")
	rep := precheck.Run(text)
	assert.False(t, rep.Failed)
	require.Len(t, rep.Feedback, 1)
	assert.Contains(t, rep.Feedback[0], "personal info")
}

func TestRun_SectionAliasesAreFlexible(t *testing.T) {
	t.Parallel()
	text := resumeOfWords(400, "Work History University - jane@example.com")
	rep := precheck.Run(text)
	assert.False(t, rep.Failed)
}
