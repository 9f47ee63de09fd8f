package otp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayurlekha/ayurlekha/internal/common"
)

func TestInput_AdvancesFocusAndCompletesOnLastDigit(t *testing.T) {
	e := NewCodeEntry()
	require.Equal(t, 0, e.Focus())

	for i, ch := range []byte("12345") {
		require.False(t, e.Input(ch), "entry must not complete before the last digit")
		require.Equal(t, i+1, e.Focus())
	}

	require.True(t, e.Input('6'), "the sixth digit completes the entry")
	code, err := e.Code()
	require.NoError(t, err)
	require.Equal(t, "123456", code)
}

func TestInput_IgnoresNonDigits(t *testing.T) {
	e := NewCodeEntry()
	require.False(t, e.Input('a'))
	require.False(t, e.Input(' '))
	require.Equal(t, 0, e.Focus())
}

func TestCode_IncompleteEntry(t *testing.T) {
	e := NewCodeEntry()
	e.Input('1')
	e.Input('2')

	_, err := e.Code()
	require.ErrorIs(t, err, common.ErrIncompleteCode)
}

func TestBackspace_ClearsThenMovesBack(t *testing.T) {
	e := NewCodeEntry()
	e.Input('1')
	e.Input('2')
	require.Equal(t, 2, e.Focus())

	// focused field is empty: move back and clear the previous one
	e.Backspace()
	require.Equal(t, 1, e.Focus())

	e.Backspace()
	require.Equal(t, 0, e.Focus())

	_, err := e.Code()
	require.ErrorIs(t, err, common.ErrIncompleteCode)
}

func TestClear_AfterFailedVerification(t *testing.T) {
	e := NewCodeEntry()
	e.SetCode("123456")

	e.Clear()
	require.Equal(t, 0, e.Focus())
	_, err := e.Code()
	require.ErrorIs(t, err, common.ErrIncompleteCode)
}

func TestSetCode_KeepsOnlyDigits(t *testing.T) {
	e := NewCodeEntry()
	require.True(t, e.SetCode(" 12-34 56 "))
	code, err := e.Code()
	require.NoError(t, err)
	require.Equal(t, "123456", code)
}

func TestSetCode_TooShort(t *testing.T) {
	e := NewCodeEntry()
	require.False(t, e.SetCode("123"))
	_, err := e.Code()
	require.ErrorIs(t, err, common.ErrIncompleteCode)
}

func TestSetCode_ExtraDigitsIgnored(t *testing.T) {
	e := NewCodeEntry()
	require.True(t, e.SetCode("1234567890"))
	code, err := e.Code()
	require.NoError(t, err)
	require.Equal(t, "123456", code)
}
