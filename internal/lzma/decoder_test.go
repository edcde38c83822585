package lzma

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ulzma "github.com/ulikunitz/xz/lzma"
)

// compress returns the properties header and payload produced by a
// reference encoder for data.
func compress(t *testing.T, data []byte, lc, lp, pb, dict int) (props, payload []byte) {
	t.Helper()
	var buf bytes.Buffer
	cfg := ulzma.WriterConfig{
		Properties: &ulzma.Properties{LC: lc, LP: lp, PB: pb},
		DictCap:    dict,
	}
	w, err := cfg.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out := buf.Bytes()
	require.Greater(t, len(out), 13)
	// props(1) dict(4) size(8)
	return out[:5], out[13:]
}

func stream(props, payload []byte) *bytes.Reader {
	return bytes.NewReader(append(append([]byte{}, props...), payload...))
}

func sampleText(n int) []byte {
	words := []string{"vertex ", "index ", "normal ", "grid ", "OCTM ", "MG2 ", "\x00\x01\x02\x03"}
	r := rand.New(rand.NewSource(7))
	var sb strings.Builder
	for sb.Len() < n {
		sb.WriteString(words[r.Intn(len(words))])
	}
	return []byte(sb.String()[:n])
}

func sampleRandom(n int) []byte {
	r := rand.New(rand.NewSource(42))
	b := make([]byte, n)
	r.Read(b)
	return b
}

func TestDecompressRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		data       []byte
		lc, lp, pb int
		dict       int
	}{
		{"text default props", sampleText(50000), 3, 0, 2, 1 << 16},
		{"text small dict", sampleText(20000), 3, 0, 2, 4096},
		{"text lp", sampleText(30000), 0, 2, 0, 1 << 20},
		{"text pb4", sampleText(30000), 1, 1, 4, 1 << 16},
		{"random", sampleRandom(10000), 3, 0, 2, 1 << 16},
		{"zeros", make([]byte, 70000), 4, 0, 1, 1 << 12},
		{"single byte", []byte{0x42}, 3, 0, 2, 1 << 16},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			props, payload := compress(t, tc.data, tc.lc, tc.lp, tc.pb, tc.dict)

			var out bytes.Buffer
			err := Decompress(stream(props, payload), &out, int64(len(tc.data)))
			require.NoError(t, err)
			assert.Equal(t, tc.data, out.Bytes())
		})
	}
}

func TestDecompressUntilEndMarker(t *testing.T) {
	data := sampleText(12345)
	props, payload := compress(t, data, 3, 0, 2, 1<<16)

	var out bytes.Buffer
	require.NoError(t, Decompress(stream(props, payload), &out, -1))
	assert.Equal(t, data, out.Bytes())
}

func TestDecompressZeroSize(t *testing.T) {
	var out bytes.Buffer
	in := bytes.NewReader([]byte{0x5d, 0, 0, 1, 0})
	require.NoError(t, Decompress(in, &out, 0))
	assert.Zero(t, out.Len())
}

func TestParseProperties(t *testing.T) {
	p, err := ParseProperties([]byte{0x5d, 0x00, 0x00, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, Properties{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16}, p)

	_, err = ParseProperties([]byte{225, 0, 0, 1, 0})
	assert.ErrorIs(t, err, ErrInvalidProperties)

	_, err = ParseProperties([]byte{0x5d, 0})
	assert.ErrorIs(t, err, ErrInvalidProperties)
}

func TestDecompressInvalidProperties(t *testing.T) {
	var out bytes.Buffer
	in := bytes.NewReader([]byte{225, 0, 0, 1, 0, 0, 0, 0, 0, 0})
	err := Decompress(in, &out, 10)
	assert.ErrorIs(t, err, ErrInvalidProperties)
	assert.Zero(t, out.Len())
}

func TestDecompressDistanceBeforeStart(t *testing.T) {
	// An all-ones payload decodes as a rep match at position zero.
	payload := bytes.Repeat([]byte{0xff}, 16)
	var out bytes.Buffer
	err := Decompress(stream([]byte{0x5d, 0, 0, 1, 0}, payload), &out, 100)
	assert.ErrorIs(t, err, ErrData)
	assert.Zero(t, out.Len())
}

func TestDecompressTruncated(t *testing.T) {
	data := sampleRandom(4000)
	props, payload := compress(t, data, 3, 0, 2, 1<<16)

	var out bytes.Buffer
	err := Decompress(stream(props, payload[:len(payload)/2]), &out, int64(len(data)))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)

	_, err = ParseProperties(props[:2])
	assert.Error(t, err)
	err = Decompress(bytes.NewReader(props[:3]), &out, 1)
	assert.ErrorIs(t, err, io.EOF)
}

type failWriter struct{ n int }

var errFull = errors.New("full")

func (w *failWriter) WriteByte(byte) error {
	if w.n == 0 {
		return errFull
	}
	w.n--
	return nil
}

func TestDecompressWriterError(t *testing.T) {
	data := sampleText(10000)
	props, payload := compress(t, data, 3, 0, 2, 4096)

	err := Decompress(stream(props, payload), &failWriter{n: 5000}, int64(len(data)))
	assert.ErrorIs(t, err, errFull)
}

func TestDecompressShortDistanceMatch(t *testing.T) {
	cases := []string{
		"abcdeXabcdeYabcdeZ",
		"0123456789012345678901234567890123456789",
		strings.Repeat("ab", 64) + strings.Repeat("xyzw", 40),
	}
	for _, s := range cases {
		data := []byte(s)
		props, payload := compress(t, data, 3, 0, 2, 1<<16)

		var out bytes.Buffer
		require.NoError(t, Decompress(stream(props, payload), &out, int64(len(data))))
		assert.Equal(t, data, out.Bytes())
	}
}

func TestDecompressWriterErrorDuringMatch(t *testing.T) {
	// Long runs of zeros decode as matches that span many window wraps.
	data := make([]byte, 100000)
	props, payload := compress(t, data, 3, 0, 2, 4096)

	var err error
	require.NotPanics(t, func() {
		err = Decompress(stream(props, payload), &failWriter{n: 4096 + 10}, int64(len(data)))
	})
	assert.ErrorIs(t, err, errFull)
}
