package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

// writeStruct encodes v as little-endian bytes into w, the write-side
// counterpart to bitreader.Reader.ReadStruct.
func writeStruct(w io.Writer, v interface{}) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// itoaHex formats an integer offset as a 0x-prefixed hex string, used for the
// CorruptContainer(where) byte-offset diagnostics required by §7.
func itoaHex(n int) string {
	return fmt.Sprintf("0x%X", n)
}
