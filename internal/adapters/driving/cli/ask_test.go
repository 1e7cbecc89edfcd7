package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresAQuestion(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "How", "many", "cats", "does", "Alex", "have?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Alex has 3 cats.")
	assert.Contains(t, out, "Confidence: 0.81")
	assert.Contains(t, out, "Alex: I have 3 cats")
}

func TestAskCmd_JoinsArgsIntoOneQuestion(t *testing.T) {
	answers := &stubAnswerService{answer: groundedAnswer()}
	SetServices(&Services{Answers: answers})
	defer SetServices(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "how", "many", "cats"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "how many cats", answers.asked)
}

func TestAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--json", "how many cats"})
	defer func() {
		rootCmd.SetArgs(nil)
		askJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"answer\"")
	assert.Contains(t, buf.String(), "\"confidence\"")
	assert.Contains(t, buf.String(), "\"supported\"")
}

func TestAskCmd_UnsupportedAnswerGetsCaveat(t *testing.T) {
	SetServices(&Services{Answers: &stubAnswerService{answer: domain.NoInformationAnswer()}})
	defer SetServices(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), domain.NoInformationText)
	assert.Contains(t, buf.String(), "treat with caution")
}

func TestAskCmd_NotReadySuggestsRefresh(t *testing.T) {
	SetServices(&Services{Answers: &stubAnswerService{err: domain.ErrNotReady}})
	defer SetServices(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rosterqa refresh")
}

func TestAskCmd_FailsWithoutServices(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
