package main

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptLine(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  admin@example.com \nrest"))

	got, err := promptLine(r, &out, "Email")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", got)
	assert.Equal(t, "Email: ", out.String())

	got, err = promptLine(r, &out, "Next")
	require.NoError(t, err)
	assert.Equal(t, "rest", got, "last line without newline")

	_, err = promptLine(r, &out, "Again")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPromptSecret(t *testing.T) {
	restore := stubPasswords(t, "s3cret-value")
	defer restore()

	var out bytes.Buffer
	got, err := promptSecret(&out, "Password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret-value", got)
	assert.Equal(t, "Password: \n", out.String())
}

func TestPromptSecret_Error(t *testing.T) {
	old := readPassword
	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	defer func() { readPassword = old }()

	_, err := promptSecret(io.Discard, "Password")
	assert.EqualError(t, err, "not a terminal")
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "no migrations applied", formatVersion(0, false))
	assert.Equal(t, "version 1", formatVersion(1, false))
	assert.Equal(t, "version 2 (dirty)", formatVersion(2, true))
}

// stubPasswords answers successive password prompts from answers.
func stubPasswords(t *testing.T, answers ...string) func() {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			t.Fatal("unexpected password prompt")
		}
		v := answers[0]
		answers = answers[1:]
		return []byte(v), nil
	}
	return func() { readPassword = old }
}
