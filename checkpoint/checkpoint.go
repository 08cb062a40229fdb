// Package checkpoint persists function dof data to disk as a
// zstd-compressed binary file with a small self-describing header.
package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/DataDog/zstd"

	"github.com/alsgregory/firedrake/fem"
)

const (
	// MagicNumber marks checkpoint files so reading an unrelated file
	// fails immediately instead of producing garbage dofs.
	MagicNumber = 0x66d7a305
	Version     = 1
)

var order = binary.LittleEndian

// Save writes the function's name and dof array to path, compressing
// the dof payload.
func Save(path string, fn *fem.Function) error {
	data := fn.Data()
	raw := make([]byte, 8*len(data))
	for i, v := range data {
		order.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	payload, err := zstd.Compress(nil, raw)
	if err != nil {
		return fmt.Errorf("compressing checkpoint for %q: %w", fn.Name(), err)
	}

	var buf bytes.Buffer
	name := []byte(fn.Name())
	binary.Write(&buf, order, uint32(MagicNumber))
	binary.Write(&buf, order, uint32(Version))
	binary.Write(&buf, order, uint32(len(name)))
	buf.Write(name)
	binary.Write(&buf, order, int64(len(data)))
	binary.Write(&buf, order, int64(len(payload)))
	buf.Write(payload)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing checkpoint %s: %w", path, err)
	}
	return nil
}

// Load reads a checkpoint from path into the function, which must have
// the same number of dofs as the stored field. The stored name is
// restored onto the function.
func Load(path string, fn *fem.Function) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	buf := bytes.NewReader(b)

	var magic, version, nameLen uint32
	if err := binary.Read(buf, order, &magic); err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	if magic != MagicNumber {
		return fmt.Errorf("%s is not a checkpoint file (magic %#x)", path, magic)
	}
	if err := binary.Read(buf, order, &version); err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	if version != Version {
		return fmt.Errorf("checkpoint %s has unsupported version %d", path, version)
	}
	if err := binary.Read(buf, order, &nameLen); err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(buf, name); err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	var n, payloadLen int64
	if err := binary.Read(buf, order, &n); err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	if err := binary.Read(buf, order, &payloadLen); err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	data := fn.Data()
	if int(n) != len(data) {
		return fmt.Errorf("checkpoint %s stores %d dofs, function %q has %d",
			path, n, fn.Name(), len(data))
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(buf, payload); err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	raw, err := zstd.Decompress(nil, payload)
	if err != nil {
		return fmt.Errorf("decompressing checkpoint %s: %w", path, err)
	}
	if len(raw) != 8*len(data) {
		return fmt.Errorf("checkpoint %s payload holds %d bytes, expected %d", path, len(raw), 8*len(data))
	}
	for i := range data {
		data[i] = math.Float64frombits(order.Uint64(raw[8*i:]))
	}
	fn.Rename(string(name))
	return nil
}
