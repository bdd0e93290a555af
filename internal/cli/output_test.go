package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeInvalidRule, "invalid recurrence rule", map[string]string{"field": "FREQ"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "invalid recurrence rule", resp.Error.Message)
	assert.Equal(t, map[string]any{"field": "FREQ"}, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	require.NoError(t, formatter.Error("E002", "bad flag", "--from"))
	assert.Equal(t, "Error [E002]: bad flag\nDetails: --from\n", buf.String())
}

func TestOutputFormatter_TextRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success(OccurrenceList{
		Occurrences: []OccurrenceView{
			{Start: "2024-01-01"},
			{Start: "2024-01-05", Addition: true},
		},
		Truncated: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01\n2024-01-05 (rdate)\ntruncated after 2 occurrences\n", buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String())

	fallback := &OutputFormatter{Writer: out, Verbose: true}
	fallback.VerboseLog("to stdout")
	assert.Equal(t, "to stdout\n", out.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")

	err := WrapExitError(ExitFailure, "E001", cause)
	assert.Equal(t, "E001: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "plain", NewExitError(ExitCommandError, "plain").Error())

	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "x"))))
	assert.Equal(t, ExitFailure, GetExitCode(cause))
}
