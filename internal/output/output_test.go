package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

type balanceView struct {
	Sompi uint64 `json:"sompi"`
}

func (b balanceView) Text(w io.Writer) error {
	_, err := io.WriteString(w, "Balance: "+KAS(b.Sompi)+"\n")
	return err
}

func TestFormatter_Print(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &buf).Print(balanceView{Sompi: 150_000_000}))
	assert.Equal(t, "Balance: 1.5 KAS\n", buf.String())

	buf.Reset()
	f := NewFormatter(FormatJSON, &buf)
	assert.True(t, f.IsJSON())
	require.NoError(t, f.Print(balanceView{Sompi: 7}))
	var decoded balanceView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, uint64(7), decoded.Sompi)

	buf.Reset()
	require.NoError(t, NewFormatter(FormatText, &buf).Print("plain"))
	assert.Equal(t, "plain\n", buf.String())
}

func TestParseAndDetectFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatAuto, ParseFormat("yaml"))

	var buf bytes.Buffer
	assert.Equal(t, FormatJSON, DetectFormat(&buf, FormatAuto))
	assert.Equal(t, FormatText, DetectFormat(&buf, FormatText))
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	err := walleterr.WithSuggestion(walleterr.AmountTooLarge(416_216_738), "Send less")

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, err, FormatText))
	assert.Contains(t, buf.String(), "Error: amount exceeds the maximum spendable value")
	assert.Contains(t, buf.String(), "limit: 416216738")
	assert.Contains(t, buf.String(), "Suggestion: Send less")

	buf.Reset()
	require.NoError(t, FormatError(&buf, err, FormatJSON))
	var out ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "AMOUNT_TOO_LARGE", out.Error.Code)
	assert.Equal(t, walleterr.ExitInput, out.Error.ExitCode)

	buf.Reset()
	require.NoError(t, FormatError(&buf, errors.New("boom"), FormatJSON))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "GENERAL_ERROR", out.Error.Code)

	require.NoError(t, FormatError(&buf, nil, FormatText))
}

func TestTable(t *testing.T) {
	t.Parallel()

	tbl := NewTable("TIER", "RATE")
	tbl.AddRow("minimum", "1")
	tbl.AddRow("fastest", "12")
	assert.Equal(t, "TIER     RATE\n-------  ----\nminimum  1\nfastest  12\n", tbl.String())

	assert.Empty(t, NewTable().String())
}

func TestRenderQR_NotTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	RenderQR(&buf, "kaspa:qpd0mgtcj7r25phumvmuf2637x6g2ppa0w928yrxfe3rxpatefpa2eqawyx4h")
	assert.Zero(t, buf.Len())
}
