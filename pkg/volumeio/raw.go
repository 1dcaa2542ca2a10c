package volumeio

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"edt3d/pkg/edt"
)

// rawMagic starts every raw distance field file.
var rawMagic = [4]byte{'E', 'D', 'T', '3'}

const rawVersion = 1

// rawHeader precedes the little-endian samples of a raw file.
type rawHeader struct {
	Magic   [4]byte
	Version uint8
	Kind    uint8
	_       [2]byte
	Bands   uint32
	Rows    uint32
	Columns uint32
}

// WriteRaw writes field as a fixed header followed by its samples in
// band-major order: int16 for fixed point fields, float32 otherwise.
func WriteRaw(w io.Writer, field *edt.Field) error {
	h := rawHeader{
		Magic:   rawMagic,
		Version: rawVersion,
		Kind:    uint8(field.Kind),
		Bands:   uint32(field.Bands),
		Rows:    uint32(field.Rows),
		Columns: uint32(field.Columns),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return errors.Wrap(err, "writing raw header")
	}

	var data interface{}
	switch field.Kind {
	case edt.ScaledFixedPoint:
		data = field.Fixed
	case edt.FloatingPoint:
		data = field.Float
	default:
		return errors.Wrapf(edt.ErrInvalidOutputKind, "got %v", field.Kind)
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return errors.Wrap(err, "writing raw samples")
	}
	return nil
}

// ReadRaw reads a field written by WriteRaw.
func ReadRaw(r io.Reader) (*edt.Field, error) {
	var h rawHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "reading raw header")
	}
	if h.Magic != rawMagic {
		return nil, errors.Errorf("not a raw distance field (magic %q)", h.Magic[:])
	}
	if h.Version != rawVersion {
		return nil, errors.Errorf("unsupported raw version %d", h.Version)
	}

	kind := edt.OutputKind(h.Kind)
	if !kind.Valid() {
		return nil, errors.Wrapf(edt.ErrInvalidOutputKind, "got %v", kind)
	}
	n, err := rawVoxelCount(h)
	if err != nil {
		return nil, err
	}

	field := &edt.Field{
		Bands:   int(h.Bands),
		Rows:    int(h.Rows),
		Columns: int(h.Columns),
		Kind:    kind,
	}

	var data interface{}
	if kind == edt.ScaledFixedPoint {
		field.Fixed = make([]int16, n)
		data = field.Fixed
	} else {
		field.Float = make([]float32, n)
		data = field.Float
	}
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, errors.Wrap(err, "reading raw samples")
	}
	return field, nil
}

// rawVoxelCount returns the number of samples announced by h. Headers with
// empty dimensions or more than edt.DefaultMaxVoxels samples are rejected
// before anything is allocated.
func rawVoxelCount(h rawHeader) (int, error) {
	if h.Bands == 0 || h.Rows == 0 || h.Columns == 0 {
		return 0, errors.Errorf("invalid raw dimensions %dx%dx%d", h.Bands, h.Rows, h.Columns)
	}
	n := uint64(h.Bands)
	for _, d := range []uint32{h.Rows, h.Columns} {
		if n > edt.DefaultMaxVoxels/uint64(d) {
			return 0, errors.Errorf("raw dimensions %dx%dx%d exceed %d voxels",
				h.Bands, h.Rows, h.Columns, edt.DefaultMaxVoxels)
		}
		n *= uint64(d)
	}
	return int(n), nil
}

// SaveRaw writes field to path, creating parent directories as needed.
func SaveRaw(path string, field *edt.Field) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := WriteRaw(w, field); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// LoadRaw reads a field from path.
func LoadRaw(path string) (*edt.Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadRaw(bufio.NewReader(file))
}
