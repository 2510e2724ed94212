// Package wire contains the fixed-width big-endian integer encoding used by
// every on-disk index format in wikipath. All index files are big-endian
// regardless of host byte order; callers are responsible for positioning
// the stream before each unrelated read or write, since io.ReadSeeker and
// io.WriteSeeker share implicit state across calls.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadUint16 reads a big-endian uint16 at the stream's current position.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadUint32 reads a big-endian uint32 at the stream's current position.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadUint64 reads a big-endian uint64 at the stream's current position.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteUint16 writes v as big-endian at the stream's current position.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteUint32 writes v as big-endian at the stream's current position.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteUint64 writes v as big-endian at the stream's current position.
func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadString reads a u16 length prefix followed by that many raw bytes,
// the title encoding used by name_id.bin and id_name.bin.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadUint16(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("wire: short string body (len %d): %w", n, err)
	}
	return string(buf), nil
}

// WriteString writes s as a u16 length prefix followed by its raw bytes.
// It returns an error if s is longer than a uint16 can address.
func WriteString(w io.Writer, s string) error {
	if len(s) > 0xffff {
		return fmt.Errorf("wire: string too long to encode (%d bytes)", len(s))
	}
	if err := WriteUint16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadUint32At seeks to off and reads a big-endian uint32. It is a
// convenience for the fixed offset tables (name_id.bin's child pointers,
// id_name.bin's offset table, id_links.bin's offset table) that are
// addressed directly rather than read sequentially.
func ReadUint32At(r io.ReadSeeker, off int64) (uint32, error) {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return ReadUint32(r)
}
