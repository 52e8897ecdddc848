package wire_test

import (
	"bytes"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/p2ptracker/internal/wire"
)

var _ = Describe("Reader", func() {
	It("reads one sanitized line per call", func() {
		r := wire.NewReader(strings.NewReader("CONNECT\nADD f h 1\n"))

		l1, err := r.ReadLine()
		Expect(err).ToNot(HaveOccurred())
		Expect(l1).To(Equal("CONNECT"))

		l2, err := r.ReadLine()
		Expect(err).ToNot(HaveOccurred())
		Expect(l2).To(Equal("ADD f h 1"))
	})

	It("strips embedded BS/CR/LF from the raw line", func() {
		r := wire.NewReader(strings.NewReader("AD\x08D f\r h 1\n"))

		l, err := r.ReadLine()
		Expect(err).ToNot(HaveOccurred())
		Expect(l).To(Equal("ADD f h 1"))
	})

	It("truncates a line longer than MaxLineLength without error", func() {
		long := strings.Repeat("x", wire.MaxLineLength+100)
		r := wire.NewReader(strings.NewReader(long + "\n"))

		l, err := r.ReadLine()
		Expect(err).ToNot(HaveOccurred())
		Expect(l).To(HaveLen(wire.MaxLineLength))
	})

	It("reports a zero-byte read as io.EOF", func() {
		r := wire.NewReader(strings.NewReader(""))

		_, err := r.ReadLine()
		Expect(err).To(Equal(io.EOF))
	})

	It("handles CRLF terminated lines", func() {
		r := wire.NewReader(strings.NewReader("LIST\r\n"))

		l, err := r.ReadLine()
		Expect(err).ToNot(HaveOccurred())
		Expect(l).To(Equal("LIST"))
	})
})

var _ = Describe("Writer", func() {
	It("appends a single LF to every line", func() {
		buf := &bytes.Buffer{}
		w := wire.NewWriter(buf)

		Expect(w.WriteLine("OK")).To(Succeed())
		Expect(buf.String()).To(Equal("OK\n"))
	})

	It("writes multiple lines independently", func() {
		buf := &bytes.Buffer{}
		w := wire.NewWriter(buf)

		Expect(w.WriteLine("song.mp3 4096")).To(Succeed())
		Expect(w.WriteLine("OK")).To(Succeed())

		Expect(buf.String()).To(Equal("song.mp3 4096\nOK\n"))
	})
})
