package raster

import (
	"fmt"
	"strings"
)

// DType enumerates the pixel data types a Source can deliver. Complex types
// carry two components per sample, which doubles the word size of the
// component width.
type DType int

const (
	// DTypeUnknown is the zero value; it is never a valid read type.
	DTypeUnknown DType = iota
	// DTypeUInt8 is an 8-bit unsigned integer sample.
	DTypeUInt8
	// DTypeInt16 is a 16-bit signed integer sample.
	DTypeInt16
	// DTypeUInt16 is a 16-bit unsigned integer sample.
	DTypeUInt16
	// DTypeInt32 is a 32-bit signed integer sample.
	DTypeInt32
	// DTypeUInt32 is a 32-bit unsigned integer sample.
	DTypeUInt32
	// DTypeFloat32 is a 32-bit IEEE-754 sample.
	DTypeFloat32
	// DTypeFloat64 is a 64-bit IEEE-754 sample.
	DTypeFloat64
	// DTypeCInt16 is a complex sample with 16-bit integer components.
	DTypeCInt16
	// DTypeCInt32 is a complex sample with 32-bit integer components.
	DTypeCInt32
	// DTypeCFloat32 is a complex sample with 32-bit float components.
	DTypeCFloat32
	// DTypeCFloat64 is a complex sample with 64-bit float components.
	DTypeCFloat64
)

// WordSize returns the number of bytes one sample of this type occupies.
// Returns 0 for DTypeUnknown.
func (d DType) WordSize() int {
	switch d {
	case DTypeUInt8:
		return 1
	case DTypeInt16, DTypeUInt16:
		return 2
	case DTypeInt32, DTypeUInt32, DTypeFloat32, DTypeCInt16:
		return 4
	case DTypeFloat64, DTypeCInt32, DTypeCFloat32:
		return 8
	case DTypeCFloat64:
		return 16
	default:
		return 0
	}
}

// Valid reports whether d is one of the enumerated pixel types.
func (d DType) Valid() bool {
	return d.WordSize() != 0
}

// String returns the canonical lowercase name of the type.
func (d DType) String() string {
	switch d {
	case DTypeUInt8:
		return "uint8"
	case DTypeInt16:
		return "int16"
	case DTypeUInt16:
		return "uint16"
	case DTypeInt32:
		return "int32"
	case DTypeUInt32:
		return "uint32"
	case DTypeFloat32:
		return "float32"
	case DTypeFloat64:
		return "float64"
	case DTypeCInt16:
		return "cint16"
	case DTypeCInt32:
		return "cint32"
	case DTypeCFloat32:
		return "cfloat32"
	case DTypeCFloat64:
		return "cfloat64"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// ParseDType converts a canonical name back to a DType.
func ParseDType(name string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uint8", "byte":
		return DTypeUInt8, nil
	case "int16":
		return DTypeInt16, nil
	case "uint16":
		return DTypeUInt16, nil
	case "int32":
		return DTypeInt32, nil
	case "uint32":
		return DTypeUInt32, nil
	case "float32":
		return DTypeFloat32, nil
	case "float64":
		return DTypeFloat64, nil
	case "cint16":
		return DTypeCInt16, nil
	case "cint32":
		return DTypeCInt32, nil
	case "cfloat32":
		return DTypeCFloat32, nil
	case "cfloat64":
		return DTypeCFloat64, nil
	default:
		return DTypeUnknown, fmt.Errorf("raster: unknown dtype %q", name)
	}
}

// MarshalYAML implements yaml.Marshaler, emitting the canonical name.
func (d DType) MarshalYAML() (interface{}, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("raster: cannot marshal invalid dtype %d", int(d))
	}
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler, accepting the canonical name.
func (d *DType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseDType(name)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
