package ui_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodine/ecodine/ui"
)

func TestTableAlignsColumns(t *testing.T) {
	out := &bytes.Buffer{}
	u := ui.NewTerminalUIWithIO(out, strings.NewReader(""))
	u.Table([]string{"ID", "Dish"}, [][]string{{"1", "Pumpkin soup"}, {"12", "Tofu"}})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "│ ID │ Dish         │")
	assert.Contains(t, lines[4], "│ 12 │ Tofu         │")
}

func TestAskRetriesUntilValid(t *testing.T) {
	out := &bytes.Buffer{}
	u := ui.NewTerminalUIWithIO(out, strings.NewReader("abc\n42\n"))
	got := u.Ask(func(s string) error {
		if s != "42" {
			return assert.AnError
		}
		return nil
	})
	assert.Equal(t, "42", got)
	assert.Contains(t, out.String(), assert.AnError.Error())
}

func TestConfirmDefault(t *testing.T) {
	u := ui.NewTerminalUIWithIO(&bytes.Buffer{}, strings.NewReader("\nn\n"))
	assert.True(t, u.Confirm("Pay 0.01?", true))
	assert.False(t, u.Confirm("Pay 0.01?", true))
}

func TestIndentedWriter(t *testing.T) {
	out := &bytes.Buffer{}
	u := ui.NewTerminalUIWithIO(out, strings.NewReader(""))
	_, err := u.Indent().Writer().Write([]byte("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, "  a\n  b\n", out.String())
}

func TestRecordingUI(t *testing.T) {
	r := ui.NewRecordingUI("2", "secret")
	r.Warn("wrong network %d", 1)
	assert.Equal(t, 1, r.Choose("Supply source", []string{"Local", "Imported"}))
	assert.Equal(t, "secret", r.Indent().Password("Keystore password"))
	assert.True(t, r.HasMessage("WRONG NETWORK"))
	assert.Equal(t, []string{"wrong network 1"}, r.WarnMessages())
	assert.Panics(t, func() { r.Ask(nil) })
}

func TestStyledTextJSON(t *testing.T) {
	b, err := json.Marshal(ui.Styled("0.02 ETH", ui.SeverityCritical))
	require.NoError(t, err)
	assert.Equal(t, `"0.02 ETH"`, string(b))
}
