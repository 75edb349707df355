package energy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	s, err := ParseLine("2024/01/01 10:02:03.250 123.5")
	require.NoError(t, err)
	require.Equal(t, "2024/01/01", s.Date)
	require.Equal(t, 10*3600+2*60+3.25, s.Seconds)
	require.Equal(t, 123.5, s.Power)
}

func TestParseLineKinds(t *testing.T) {
	cases := []struct {
		text string
		kind Kind
	}{
		{"", KindBlank},
		{"   \t", KindBlank},
		{"# header", KindComment},
		{"   #indented", KindComment},
		{"2024/01/01", KindTruncated},
		{"2024/01/01 10:00:00.000", KindTruncated},
		{"2024/01/01 10:00 5", KindCorrupt},
		{"2024/01/01 aa:00:00 5", KindCorrupt},
		{"2024/01/01 10:bb:00 5", KindCorrupt},
		{"2024/01/01 10:00:cc 5", KindCorrupt},
		{"2024/01/01 25:00:00 5", KindCorrupt},
		{"2024/01/01 10:00:00 5,", KindCorrupt},
		{"2024/01/01 10:00:00 NaN", KindCorrupt},
		{"2024/01/01 10:00:00 -inf", KindCorrupt},
	}
	for _, c := range cases {
		_, err := ParseLine(c.text)
		require.Error(t, err, c.text)
		le, ok := err.(*LineError)
		require.True(t, ok, c.text)
		require.Equal(t, c.kind, le.Kind, c.text)
		require.ErrorIs(t, err, ErrMalformedLine)
	}
}

func TestLineErrorMessage(t *testing.T) {
	_, err := ParseLine("2024/01/01 10:00:00 x")
	le := err.(*LineError)
	le.Line = 7
	require.Contains(t, le.Error(), "line 7: corrupt line: power \"x\"")
	require.Equal(t, "Kind(9)", Kind(9).String())
}

func TestParseClock(t *testing.T) {
	secs, err := parseClock("00:00:00")
	require.NoError(t, err)
	require.Zero(t, secs)

	secs, err = parseClock("23:59:59.999")
	require.NoError(t, err)
	require.InDelta(t, 86399.999, secs, 1e-9)

	_, err = parseClock("12:60:00")
	require.Error(t, err)
}

func TestLooksLikeSample(t *testing.T) {
	require.True(t, looksLikeSample("2024/01/01 10:00:00.000 1O0"))
	require.True(t, looksLikeSample("2024/01/01 10:00:00"))
	require.False(t, looksLikeSample("timestamp power.draw [W]"))
	require.False(t, looksLikeSample("header"))
}
