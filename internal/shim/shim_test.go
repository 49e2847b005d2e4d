package shim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	result any
	err    error
	calls  []string
}

func (s *stubRecognizer) Recognize(_ context.Context, path string) (any, error) {
	s.calls = append(s.calls, path)
	return s.result, s.err
}

func factoryFor(rec Recognizer) (Factory, *int) {
	built := 0
	return func() (Recognizer, error) {
		built++
		return rec, nil
	}, &built
}

// oneLine asserts out holds exactly one newline-terminated line and returns it.
func oneLine(t *testing.T, out *bytes.Buffer) string {
	t.Helper()
	s := out.String()
	require.True(t, strings.HasSuffix(s, "\n"), "output ends with a newline: %q", s)
	require.Equal(t, 1, strings.Count(s, "\n"), "exactly one line: %q", s)
	return strings.TrimSuffix(s, "\n")
}

func TestRunWithoutArgument(t *testing.T) {
	stub := &stubRecognizer{}
	factory, built := factoryFor(stub)
	var out bytes.Buffer

	err := Run(t.Context(), nil, &out, factory)

	var reported *ReportedError
	require.ErrorAs(t, err, &reported)
	assert.Equal(t, `{"error":"No file path provided"}`, oneLine(t, &out))
	assert.Zero(t, *built, "recognizer is never constructed")
	assert.Empty(t, stub.calls)
}

func TestRunSuccessPassesResultThrough(t *testing.T) {
	stub := &stubRecognizer{result: map[string]string{"track": "X", "artist": "Y"}}
	factory, _ := factoryFor(stub)
	var out bytes.Buffer

	require.NoError(t, Run(t.Context(), []string{"song.mp3"}, &out, factory))

	assert.JSONEq(t, `{"track":"X","artist":"Y"}`, oneLine(t, &out))
	assert.Equal(t, []string{"song.mp3"}, stub.calls)
}

func TestRunRecognizerError(t *testing.T) {
	stub := &stubRecognizer{err: errors.New("file not found")}
	factory, _ := factoryFor(stub)
	var out bytes.Buffer

	err := Run(t.Context(), []string{"missing.mp3"}, &out, factory)

	assert.EqualError(t, err, "file not found")
	assert.Equal(t, `{"error":"file not found"}`, oneLine(t, &out))
}

func TestRunFactoryError(t *testing.T) {
	var out bytes.Buffer
	err := Run(t.Context(), []string{"song.mp3"}, &out, func() (Recognizer, error) {
		return nil, errors.New("opening catalog: permission denied")
	})

	var reported *ReportedError
	require.ErrorAs(t, err, &reported)
	assert.Equal(t, `{"error":"opening catalog: permission denied"}`, oneLine(t, &out))
}

func TestRunRecoversPanic(t *testing.T) {
	var out bytes.Buffer
	factory, _ := factoryFor(RecognizerFunc(func(context.Context, string) (any, error) {
		panic("decoder blew up")
	}))

	err := Run(t.Context(), []string{"song.mp3"}, &out, factory)
	require.Error(t, err)
	assert.Equal(t, `{"error":"decoder blew up"}`, oneLine(t, &out))
}

func TestRunCompactsRawJSON(t *testing.T) {
	raw := json.RawMessage("{\n  \"track\": \"X\",\n  \"artist\": \"Y\"\n}\n")
	factory, _ := factoryFor(&stubRecognizer{result: raw})
	var out bytes.Buffer

	require.NoError(t, Run(t.Context(), []string{"song.mp3"}, &out, factory))
	assert.Equal(t, `{"track":"X","artist":"Y"}`, oneLine(t, &out), "keys keep their order")
}

func TestRunDoesNotEscapeHTML(t *testing.T) {
	result := struct {
		Title string `json:"title"`
	}{Title: "Tom & Jerry <live>"}
	factory, _ := factoryFor(&stubRecognizer{result: result})
	var out bytes.Buffer

	require.NoError(t, Run(t.Context(), []string{"song.mp3"}, &out, factory))
	assert.Equal(t, `{"title":"Tom & Jerry <live>"}`, oneLine(t, &out))
}

func TestRunUnencodableResult(t *testing.T) {
	factory, _ := factoryFor(&stubRecognizer{result: json.RawMessage("{broken")})
	var out bytes.Buffer

	err := Run(t.Context(), []string{"song.mp3"}, &out, factory)
	require.Error(t, err)

	var doc ErrorReport
	require.NoError(t, json.Unmarshal([]byte(oneLine(t, &out)), &doc))
	assert.Contains(t, doc.Error, "encoding result")
}

func TestRunIgnoresExtraArguments(t *testing.T) {
	stub := &stubRecognizer{result: map[string]int{"n": 1}}
	factory, _ := factoryFor(stub)
	var out bytes.Buffer

	require.NoError(t, Run(t.Context(), []string{"a.mp3", "b.mp3"}, &out, factory))
	assert.Equal(t, []string{"a.mp3"}, stub.calls)
	assert.Equal(t, `{"n":1}`, oneLine(t, &out))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteErrorReportsWriteFailure(t *testing.T) {
	err := WriteError(failingWriter{}, errors.New("boom"))
	assert.EqualError(t, err, "broken pipe")

	var reported *ReportedError
	assert.False(t, errors.As(err, &reported))
}
