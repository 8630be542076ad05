package img
import (
	"os"
	"fmt"
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/png"
	"image/jpeg"
	"strings"
	"path/filepath"

	"golang.org/x/image/bmp"
)

/*
 * Image file codec. Merged images must keep exact channel bytes, so only
 * lossless formats are written; jpeg and gif are accepted as input.
 */

const (
	FormatPNG = "png"
	FormatBMP = "bmp"
	FormatGIF = "gif"
	FormatJPEG = "jpeg"
)

var (
	ErrDecode = errors.New("failed to decode image")
	ErrUnknownFormat = errors.New("unsupported image format")
	ErrLossyFormat = errors.New("format does not preserve exact pixel values")
)

// CodecError carries the file and operation of an image I/O failure.
type CodecError struct {
	Op	string
	Path	string
	Err	error
}

func(e *CodecError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func(e *CodecError) Unwrap() error {
	return e.Err
}

// DetectFormat looks at the magic bytes of an encoded image.
func DetectFormat( data []byte ) (string, error) {
	switch {
	case len(data) >= 3 && data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46:
		return FormatGIF, nil
	case len(data) >= 8 && bytes.Equal( data[:8], []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a} ):
		return FormatPNG, nil
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		return FormatJPEG, nil
	case len(data) >= 2 && data[0] == 0x42 && data[1] == 0x4d:
		return FormatBMP, nil
	}
	return "", ErrUnknownFormat
}

// FormatFromPath maps a file extension to an output format.
func FormatFromPath( path string ) (string, error) {
	ext := strings.ToLower( strings.TrimPrefix( filepath.Ext( path ), "." ) )
	switch ext {
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

func DecodeBytes( data []byte ) (image.Image, string, error) {
	format, err := DetectFormat( data )
	if err != nil {
		return nil, "", err
	}
	r := bytes.NewReader( data )
	var m image.Image
	switch format {
	case FormatPNG:
		m, err = png.Decode( r )
	case FormatBMP:
		m, err = bmp.Decode( r )
	case FormatGIF:
		m, err = gif.Decode( r )
	case FormatJPEG:
		m, err = jpeg.Decode( r )
	}
	if err != nil {
		return nil, format, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return m, format, nil
}

// EncodeBytes writes m in a lossless format.
func EncodeBytes( m image.Image, format string ) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode( buf, m )
	case FormatBMP:
		err = bmp.Encode( buf, m )
	case FormatJPEG, FormatGIF:
		return nil, fmt.Errorf("%w: %s", ErrLossyFormat, format)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Load( path string ) (image.Image, error) {
	data, err := os.ReadFile( path )
	if err != nil {
		return nil, &CodecError{ "load", path, err }
	}
	m, _, err := DecodeBytes( data )
	if err != nil {
		return nil, &CodecError{ "load", path, err }
	}
	return m, nil
}

// Save encodes m in the format named by the path's extension.
func Save( m image.Image, path string ) error {
	format, err := FormatFromPath( path )
	if err != nil {
		return &CodecError{ "save", path, err }
	}
	data, err := EncodeBytes( m, format )
	if err != nil {
		return &CodecError{ "save", path, err }
	}
	if err = os.WriteFile( path, data, 0660 ); err != nil {
		return &CodecError{ "save", path, err }
	}
	return nil
}
