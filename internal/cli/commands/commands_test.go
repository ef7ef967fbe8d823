// Package commands_test provides tests for CLI command creation.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leappivot/internal/cli/config"
	"github.com/leapstack-labs/leappivot/internal/cli/output"
	"github.com/leapstack-labs/leappivot/internal/cli/testutil"
	"github.com/leapstack-labs/leappivot/internal/engine"
	roottestutil "github.com/leapstack-labs/leappivot/internal/testutil"
	"github.com/leapstack-labs/leappivot/pkg/pivot"
	datatable "github.com/leapstack-labs/leappivot/pkg/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPivotCommand(t *testing.T) {
	cmd := NewPivotCommand()

	assert.Equal(t, "pivot <file>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"index", "columns", "values", "fill", "out", "watch"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "a", cmd.Flags().Lookup("values").Shorthand)
}

func TestNewInspectCommand(t *testing.T) {
	cmd := NewInspectCommand()

	assert.Equal(t, "inspect <file>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewInteractiveCommand(t *testing.T) {
	cmd := NewInteractiveCommand()

	assert.Equal(t, "interactive [file]", cmd.Use)
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
	assert.Contains(t, cmd.Aliases, "repl")
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "Sex", want: []string{"Sex"}},
		{in: " Sex , Pclass ", want: []string{"Sex", "Pclass"}},
		{in: "a,,b,", want: []string{"a", "b"}},
		{in: " , ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.in))
		})
	}
}

func TestParseFill(t *testing.T) {
	got, err := parseFill("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseFill(" 0 ")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = parseFill("-1.5")
	require.NoError(t, err)
	assert.Equal(t, -1.5, got)

	for _, bad := range []string{"zero", "NaN", "nan", "Inf", "-infinity", "1e999"} {
		_, err = parseFill(bad)
		require.ErrorIs(t, err, pivot.ErrInvalidType, bad)
		assert.Contains(t, err.Error(), "finite number")
	}
}

func TestBuildOptions(t *testing.T) {
	cfg := &config.Config{Defaults: config.Defaults{
		Index:  []string{"Embarked"},
		Values: []string{"Fare"},
	}}

	t.Run("defaults fill gaps", func(t *testing.T) {
		opts, err := buildOptions(cfg, nil, []string{"Sex"}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Embarked"}, opts.Index)
		assert.Equal(t, []string{"Sex"}, opts.Columns)
		assert.Equal(t, []string{"Fare"}, opts.Values)
		assert.Nil(t, opts.Fill)
	})

	t.Run("explicit wins", func(t *testing.T) {
		opts, err := buildOptions(cfg, []string{"Sex"}, nil, []string{"Age"}, "0")
		require.NoError(t, err)
		assert.Equal(t, []string{"Sex"}, opts.Index)
		assert.Nil(t, opts.Columns)
		assert.Equal(t, []string{"Age"}, opts.Values)
		assert.Equal(t, 0.0, opts.Fill)
	})

	t.Run("bad fill", func(t *testing.T) {
		_, err := buildOptions(cfg, nil, nil, nil, "n/a")
		require.ErrorIs(t, err, pivot.ErrInvalidType)
	})
}

// useOutput loads config with --output set, as the root command would.
func useOutput(t *testing.T, mode string) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("output", "o", "", "")
	require.NoError(t, flags.Set("output", mode))
	_, err := config.LoadConfig("", flags)
	require.NoError(t, err)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPivotCommand_Markdown(t *testing.T) {
	config.ResetConfig()
	path := roottestutil.WriteFile(t, "titanic.csv", roottestutil.TitanicCSV)

	out, _, err := execute(t, NewPivotCommand(), path, "--fill", "0")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Pivot: mean of Fare")
	assert.Contains(t, out, "- **Index**: Embarked")
	assert.Contains(t, out, "- **Columns**: Sex")
	assert.Contains(t, out, "- **Fill**: 0")
	assert.Contains(t, out, "Fare_female")
	assert.Contains(t, out, "50.67705")
	assert.Contains(t, out, "22.3875")
}

func TestPivotCommand_JSON(t *testing.T) {
	useOutput(t, "json")
	path := roottestutil.WriteFile(t, "titanic.csv", roottestutil.TitanicCSV)
	saved := filepath.Join(t.TempDir(), "out", "fares.csv")

	out, _, err := execute(t, NewPivotCommand(), path, "-i", "Sex", "-c", "Embarked", "-a", "Age", "--out", saved)
	require.NoError(t, err)

	var got PivotOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"Sex"}, got.Spec.Index)
	assert.Equal(t, []string{"Age"}, got.Spec.Values)
	assert.Equal(t, []string{"Embarked"}, got.Spec.Columns)
	assert.Equal(t, saved, got.Output)
	assert.Equal(t, []string{"Sex", "Age_C", "Age_Q", "Age_S"}, got.Table.Columns)
	require.Len(t, got.Table.Rows, 2)
	assert.Equal(t, "female", got.Table.Rows[0]["Sex"])
	assert.Equal(t, 26.0, got.Table.Rows[0]["Age_C"])
	assert.FileExists(t, saved)
}

func TestPivotCommand_Errors(t *testing.T) {
	config.ResetConfig()
	path := roottestutil.WriteFile(t, "titanic.csv", roottestutil.TitanicCSV)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "nope.csv")}, wantErr: "file not found"},
		{name: "unknown column", args: []string{path, "-i", "Cabin"}, wantErr: "Cabin"},
		{name: "categorical values", args: []string{path, "-a", "Sex", "-i", "Embarked"}, wantErr: "Sex"},
		{name: "bad fill", args: []string{path, "--fill", "none"}, wantErr: "fill value must be a finite number"},
		{name: "NaN fill", args: []string{path, "--fill", "nan"}, wantErr: "fill value must be a finite number"},
		{name: "no args", args: nil, wantErr: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewPivotCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInspectCommand(t *testing.T) {
	path := roottestutil.WriteFile(t, "titanic.csv", roottestutil.TitanicCSV)

	t.Run("json", func(t *testing.T) {
		useOutput(t, "json")
		out, _, err := execute(t, NewInspectCommand(), path)
		require.NoError(t, err)

		var got InspectOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 8, got.Rows)
		require.Len(t, got.Columns, 5)
		assert.Equal(t, "Pclass", got.Columns[0].Name)
		assert.Equal(t, "Numeric", got.Columns[0].Kind)
		assert.Equal(t, "Categorical", got.Columns[1].Kind)
		require.NotNil(t, got.Defaults)
		assert.Equal(t, []string{"Embarked"}, got.Defaults.Index)
		assert.Equal(t, []string{"Sex"}, got.Defaults.Columns)
		assert.Equal(t, []string{"Fare"}, got.Defaults.Values)
		assert.Empty(t, got.DefaultsError)
	})

	t.Run("markdown", func(t *testing.T) {
		config.ResetConfig()
		out, _, err := execute(t, NewInspectCommand(), path)
		require.NoError(t, err)

		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "8 rows, 5 columns")
		assert.Contains(t, out, "| Fare | DOUBLE | Numeric |")
		assert.Contains(t, out, "## Default pivot")
		assert.Contains(t, out, "- **Values**: Fare")
	})

	t.Run("markdown escapes pipes", func(t *testing.T) {
		tbl, err := datatable.New(
			datatable.NewCategorical("in|out", "a", "b"),
			datatable.NewNumeric("n", 1, 2),
		)
		require.NoError(t, err)

		tr := testutil.NewTestRenderer(output.ModeMarkdown)
		require.NoError(t, renderInspectMarkdown(tr.Renderer, newInspectOutput("pipes.csv", tbl)))

		out := tr.Output()
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, `| in\|out | VARCHAR | Categorical |`)
		assert.Contains(t, out, "| n | DOUBLE | Numeric |")
	})

	t.Run("csv", func(t *testing.T) {
		useOutput(t, "csv")
		out, _, err := execute(t, NewInspectCommand(), path)
		require.NoError(t, err)
		assert.Contains(t, out, "column,type,kind")
		assert.Contains(t, out, "Sex,VARCHAR,Categorical")
	})

	t.Run("no numeric columns", func(t *testing.T) {
		config.ResetConfig()
		labels := roottestutil.WriteFile(t, "labels.csv", "a,b\nx,y\n")
		out, _, err := execute(t, NewInspectCommand(), labels)
		require.NoError(t, err)
		assert.Contains(t, out, "**Unavailable**")
	})
}

func TestRenderPivot_Text(t *testing.T) {
	res := runTitanic(t, pivot.Options{Fill: 0.0})
	res.Output = "fares.parquet"

	tr := testutil.NewTestRenderer(output.ModeText)
	require.NoError(t, renderPivot(tr.Renderer, res))

	out := tr.Output()
	testutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "Pivot: mean of Fare")
	assert.Contains(t, out, "Columns:")
	assert.Contains(t, out, "Fill:")
	assert.Contains(t, out, "(3 rows)")
	assert.Contains(t, out, "Saved to fares.parquet")
}

func TestRenderPivot_YAML(t *testing.T) {
	res := runTitanic(t, pivot.Options{})

	tr := testutil.NewTestRenderer(output.ModeYAML)
	require.NoError(t, renderPivot(tr.Renderer, res))

	out := tr.Output()
	assert.Contains(t, out, "spec:")
	assert.Contains(t, out, "- Embarked")
	assert.Contains(t, out, "Fare_male: null")
	assert.NotContains(t, out, "output:")
}

func runTitanic(t *testing.T, opts pivot.Options) *engine.Result {
	t.Helper()
	eng := newTestEngine(t)
	path := roottestutil.WriteFile(t, "titanic.csv", roottestutil.TitanicCSV)
	res, err := eng.Run(context.Background(), engine.Request{Input: path, Options: opts})
	require.NoError(t, err)
	return res
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(context.Background(), engine.Config{Logger: roottestutil.NewTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

// fakeReader replays scripted answers, then reports EOF.
type fakeReader struct {
	answers []fakeAnswer
	prompts []string
}

type fakeAnswer struct {
	line string
	err  error
}

func (f *fakeReader) Readline() (string, error) {
	if len(f.answers) == 0 {
		return "", io.EOF
	}
	a := f.answers[0]
	f.answers = f.answers[1:]
	return a.line, a.err
}

func (f *fakeReader) SetPrompt(prompt string) {
	if prompt != interactivePrompt {
		f.prompts = append(f.prompts, prompt)
	}
}

func answers(lines ...string) []fakeAnswer {
	out := make([]fakeAnswer, len(lines))
	for i, l := range lines {
		out[i] = fakeAnswer{line: l}
	}
	return out
}

func newSession(t *testing.T, rl lineReader, mode output.Mode, cfg *config.Config) (*session, *testutil.TestRenderer) {
	t.Helper()
	tr := testutil.NewTestRenderer(mode)
	return &session{
		rl: rl,
		cmdCtx: &CommandContext{
			Cfg:      cfg,
			Logger:   roottestutil.NewTestLogger(t),
			Engine:   newTestEngine(t),
			Renderer: tr.Renderer,
		},
	}, tr
}

func TestSession_Run(t *testing.T) {
	path := roottestutil.WriteFile(t, "titanic.csv", roottestutil.TitanicCSV)
	saved := filepath.Join(t.TempDir(), "fares.json")

	rl := &fakeReader{answers: answers(path, "Embarked", "Sex", "Fare", "0", saved)}
	s, tr := newSession(t, rl, output.ModeMarkdown, &config.Config{})

	require.NoError(t, s.run(context.Background()))

	assert.Equal(t, []string{
		"File path: ",
		"Index columns: ",
		"Grouping columns: ",
		"Aggregation columns: ",
		"Fill value: ",
		"Output path: ",
		"File path [" + path + "]: ",
	}, rl.prompts)

	out := tr.Output()
	assert.Contains(t, out, "Fare_female")
	assert.Contains(t, out, "50.67705")
	assert.Contains(t, out, "Saved to")
	assert.Empty(t, tr.ErrorOutput())
	assert.FileExists(t, saved)
}

func TestSession_DefaultsAndReuse(t *testing.T) {
	path := roottestutil.WriteFile(t, "titanic.csv", roottestutil.TitanicCSV)
	cfg := &config.Config{Defaults: config.Defaults{Index: []string{"Embarked"}, Values: []string{"Age"}}}

	// Second pivot reuses the file by leaving the path empty.
	rl := &fakeReader{answers: answers(
		path, "", "", "", "", "",
		"", "Pclass", "", "Fare", "", "",
		".quit",
	)}
	s, tr := newSession(t, rl, output.ModeJSON, cfg)

	require.NoError(t, s.run(context.Background()))
	assert.Empty(t, tr.ErrorOutput())

	dec := json.NewDecoder(bytes.NewReader(tr.Out.Bytes()))
	var first, second PivotOutput
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, []string{"Embarked"}, first.Spec.Index)
	assert.Equal(t, []string{"Sex"}, first.Spec.Columns)
	assert.Equal(t, []string{"Age"}, first.Spec.Values)
	assert.Equal(t, []string{"Pclass"}, second.Spec.Index)
	assert.Equal(t, []string{"Fare"}, second.Spec.Values)
}

func TestSession_ErrorsContinue(t *testing.T) {
	path := roottestutil.WriteFile(t, "titanic.csv", roottestutil.TitanicCSV)
	missing := filepath.Join(t.TempDir(), "missing.csv")

	rl := &fakeReader{answers: []fakeAnswer{
		{line: ""}, // no file yet
		{line: missing}, {}, {}, {}, {}, {},
		{line: path}, {line: "Embarked"},
		{err: readline.ErrInterrupt},
		{line: path}, {line: "Embarked"}, {line: "Sex"}, {line: "Fare"}, {line: "zero"}, {},
		{line: ".help"},
		{line: ".exit"},
	}}
	s, tr := newSession(t, rl, output.ModeMarkdown, &config.Config{})

	require.NoError(t, s.run(context.Background()))

	errOut := tr.ErrorOutput()
	assert.Contains(t, errOut, "a file path is required")
	assert.Contains(t, errOut, "file not found")
	assert.Contains(t, errOut, "fill value must be a finite number")
	assert.Contains(t, tr.Output(), ".quit / .exit")
	assert.NotContains(t, tr.Output(), "Pivot: mean of")
}

func TestHistoryPath(t *testing.T) {
	assert.Empty(t, historyPath(""))
	assert.Equal(t, "/tmp/hist", historyPath("/tmp/hist"))

	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, filepath.Join("/home/tester", ".leappivot_history"), historyPath(".leappivot_history"))
}
