package tfevents

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// ErrCorrupt is returned when a record fails its length or data checksum.
var ErrCorrupt = errors.New("tfevents: corrupt record")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

const maskDelta = 0xa282ead8

func maskedCRC(data []byte) uint32 {
	c := crc32.Checksum(data, castagnoli)
	return ((c >> 15) | (c << 17)) + maskDelta
}

// writeRecord frames data as a TFRecord:
// uint64 length, uint32 masked crc(length), data, uint32 masked crc(data).
func writeRecord(w io.Writer, data []byte) (int, error) {
	var hdr [12]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(len(data)))
	binary.LittleEndian.PutUint32(hdr[8:12], maskedCRC(hdr[0:8]))

	var ftr [4]byte
	binary.LittleEndian.PutUint32(ftr[:], maskedCRC(data))

	n := 0
	for _, chunk := range [][]byte{hdr[:], data, ftr[:]} {
		m, err := w.Write(chunk)
		n += m
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

// readRecord returns the next record payload, or io.EOF at a clean end of
// stream. A truncated record yields io.ErrUnexpectedEOF.
func readRecord(r io.Reader) ([]byte, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	if got, want := binary.LittleEndian.Uint32(hdr[8:12]), maskedCRC(hdr[0:8]); got != want {
		return nil, fmt.Errorf("%w: length crc %#x, want %#x", ErrCorrupt, got, want)
	}

	size := binary.LittleEndian.Uint64(hdr[0:8])
	const maxRecord = 1 << 30
	if size > maxRecord {
		return nil, fmt.Errorf("%w: record length %d", ErrCorrupt, size)
	}

	buf := make([]byte, size+4)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	data := buf[:size]
	if got, want := binary.LittleEndian.Uint32(buf[size:]), maskedCRC(data); got != want {
		return nil, fmt.Errorf("%w: data crc %#x, want %#x", ErrCorrupt, got, want)
	}

	return data, nil
}
