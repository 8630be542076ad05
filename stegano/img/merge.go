package img
import (
	"fmt"
	"errors"
	"image"
	"image/color"
)

/*
 * Nibble packing: each channel of the merged image keeps the carrier's
 * high nibble and stores the payload's high nibble in its low nibble.
 * Only the payload's upper 4 bits survive a round trip.
 */

var ErrDimension = errors.New("payload is larger than carrier")

type DimensionError struct {
	Carrier	image.Point
	Payload	image.Point
}

func(e *DimensionError) Error() string {
	return fmt.Sprintf("%s: payload %dx%d, carrier %dx%d", ErrDimension.Error(),
		e.Payload.X, e.Payload.Y, e.Carrier.X, e.Carrier.Y)
}

func(e *DimensionError) Is( target error ) bool {
	return target == ErrDimension
}

// rgbAt reads a pixel as 8-bit non-premultiplied channels, relative to the
// image origin.
func rgbAt( m image.Image, x, y int ) (uint8, uint8, uint8) {
	min := m.Bounds().Min
	c := color.NRGBAModel.Convert( m.At( min.X + x, min.Y + y ) ).(color.NRGBA)
	return c.R, c.G, c.B
}

func packNibbles( carrier, payload uint8 ) uint8 {
	return (carrier & 0xf0) | (payload >> 4)
}

func unpackNibble( merged uint8 ) uint8 {
	return (merged & 0x0f) << 4
}

// Merge embeds payload into carrier. The result has the carrier's size;
// coordinates outside the payload embed zero.
func Merge( carrier, payload image.Image ) (*image.NRGBA, error) {
	cSize := carrier.Bounds().Size()
	pSize := payload.Bounds().Size()
	if pSize.X > cSize.X || pSize.Y > cSize.Y {
		return nil, &DimensionError{ Carrier: cSize, Payload: pSize }
	}

	merged := image.NewNRGBA( image.Rect( 0, 0, cSize.X, cSize.Y ) )
	for x := 0; x < cSize.X; x++ {
		for y := 0; y < cSize.Y; y++ {
			cr, cg, cb := rgbAt( carrier, x, y )
			var pr, pg, pb uint8
			if x < pSize.X && y < pSize.Y {
				pr, pg, pb = rgbAt( payload, x, y )
			}
			merged.SetNRGBA( x, y, color.NRGBA{
				packNibbles( cr, pr ),
				packNibbles( cg, pg ),
				packNibbles( cb, pb ),
				0xff,
			})
		}
	}
	return merged, nil
}

// Unmerge recovers the approximate payload and crops it to the inferred
// extent.
func Unmerge( merged image.Image ) *image.NRGBA {
	recovered, _ := UnmergeExtent( merged )
	return recovered
}

// UnmergeExtent is Unmerge that also reports the inferred payload extent.
//
// The extent is not stored anywhere. Scanning columns then rows, the last
// non-black recovered pixel (x, y) gives the size (x+1, y+1); with no
// non-black pixel the whole image is kept. A payload whose last pixels are
// pure black is therefore cropped short, as is one whose last non-black
// pixel in that order does not sit on its bottom row.
func UnmergeExtent( merged image.Image ) (*image.NRGBA, image.Rectangle) {
	size := merged.Bounds().Size()
	full := image.NewNRGBA( image.Rect( 0, 0, size.X, size.Y ) )

	extent := image.Rect( 0, 0, size.X, size.Y )
	for x := 0; x < size.X; x++ {
		for y := 0; y < size.Y; y++ {
			mr, mg, mb := rgbAt( merged, x, y )
			c := color.NRGBA{ unpackNibble( mr ), unpackNibble( mg ), unpackNibble( mb ), 0xff }
			full.SetNRGBA( x, y, c )
			if c.R != 0 || c.G != 0 || c.B != 0 {
				extent = image.Rect( 0, 0, x + 1, y + 1 )
			}
		}
	}

	if extent.Eq( full.Bounds() ) {
		return full, extent
	}
	return crop( full, extent ), extent
}

// crop copies r out of src into a new image anchored at the origin.
func crop( src *image.NRGBA, r image.Rectangle ) *image.NRGBA {
	dst := image.NewNRGBA( image.Rect( 0, 0, r.Dx(), r.Dy() ) )
	for y := 0; y < r.Dy(); y++ {
		copy( dst.Pix[ y * dst.Stride : y * dst.Stride + r.Dx() * 4 ],
			src.Pix[ src.PixOffset( r.Min.X, r.Min.Y + y ) : ] )
	}
	return dst
}
