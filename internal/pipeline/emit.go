package pipeline

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"icsconv/internal/atomicfile"
	apperr "icsconv/internal/errors"
	"icsconv/internal/format"
)

// IsStdout reports whether dst names standard output.
func IsStdout(dst string) bool {
	return dst == "-" || dst == "stdout"
}

// Encode writes rows as CSV: every field quoted, CRLF line endings and an
// optional leading header. Shift_JIS output replaces runes it cannot
// represent with &#NNNN; references.
func Encode(w io.Writer, header []string, rows []format.Row, enc format.Encoding) error {
	var tw io.WriteCloser
	switch enc {
	case format.EncodingUTF8BOM:
		tw = transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	case format.EncodingShiftJIS:
		tw = transform.NewWriter(w, encoding.HTMLEscapeUnsupported(japanese.ShiftJIS.NewEncoder()))
	default:
		tw = nopCloser{w}
	}

	bw := bufio.NewWriter(tw)
	if header != nil {
		writeRecord(bw, header)
	}
	for _, r := range rows {
		writeRecord(bw, r.Cells)
	}
	if err := bw.Flush(); err != nil {
		return apperr.Wrapf(err, apperr.KindSource, "encode %s", enc)
	}
	if err := tw.Close(); err != nil {
		return apperr.Wrapf(err, apperr.KindSource, "encode %s", enc)
	}
	return nil
}

func writeRecord(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteString("\r\n")
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Write encodes the result and writes it to dst ("-"/"stdout" or a path).
// Files are replaced atomically, so a failed run never leaves a partial
// file behind.
func Write(dst string, res *Result, enc format.Encoding) error {
	var buf bytes.Buffer
	if err := Encode(&buf, res.Header, res.Rows, enc); err != nil {
		return err
	}

	if IsStdout(dst) {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			return apperr.Wrap(err, apperr.KindSource, "write stdout")
		}
		return nil
	}
	if err := atomicfile.Write(dst, buf.Bytes(), 0o644); err != nil {
		return apperr.Wrapf(err, apperr.KindSource, "write %s", dst)
	}
	return nil
}
