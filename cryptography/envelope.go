package cryptography
import (
	"io"
	"fmt"
	"bytes"
	"errors"
	"crypto/des"
	"crypto/rand"
	"crypto/cipher"
)

/*
 * Block cipher envelope: IV || CBC(pad(plaintext)).
 * The blob carries no header or length field, it is recognised only by
 * the fixed IV size and the block-multiple body.
 */

var (
	ErrFormat = errors.New("malformed cipher blob")
	ErrPadding = errors.New("invalid padding")
	ErrKeySize = errors.New("invalid key size")
)

// KeySize returns the key length for a cipher name from configuration.
func KeySize( name string ) (int, error) {
	switch name {
	case CipherDES, "":
		return DESKeySize, nil
	case CipherTripleDES:
		return TripleDESKeySize, nil
	}
	return 0, fmt.Errorf("Unknown cipher %q", name)
}

func newBlock( key []byte ) (cipher.Block, error) {
	switch len(key) {
	case DESKeySize:
		return des.NewCipher( key )
	case TripleDESKeySize:
		return des.NewTripleDESCipher( key )
	}
	return nil, fmt.Errorf("%w: %d bytes (want %d or %d)",
		ErrKeySize, len(key), DESKeySize, TripleDESKeySize)
}

// Encrypt pads plaintext to the block size and encrypts it in CBC mode
// under a fresh random IV. The IV is prepended to the result.
func Encrypt( plaintext, key []byte ) ([]byte, error) {
	return encryptWithRand( rand.Reader, plaintext, key )
}

func encryptWithRand( r io.Reader, plaintext, key []byte ) ([]byte, error) {
	block, err := newBlock( key )
	if err != nil {
		return nil, err
	}
	padded := Pad( plaintext, BlockSize )

	blob := make( []byte, IVSize + len(padded) )
	iv := blob[:IVSize]
	if _, err := io.ReadFull( r, iv ); err != nil {
		return nil, fmt.Errorf("Failed to generate IV: %w", err)
	}
	cipher.NewCBCEncrypter( block, iv ).CryptBlocks( blob[IVSize:], padded )
	return blob, nil
}

// Decrypt reverses Encrypt. A blob shorter than one IV plus one block, or
// with a body that is not a block multiple, fails with ErrFormat; a bad
// padding trailer (wrong key, corruption) fails with ErrPadding.
func Decrypt( blob, key []byte ) ([]byte, error) {
	if len(blob) < MinBlobSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrFormat, len(blob), MinBlobSize)
	}
	if (len(blob) - IVSize) % BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a multiple of %d bytes", ErrFormat, BlockSize)
	}
	block, err := newBlock( key )
	if err != nil {
		return nil, err
	}

	iv := blob[:IVSize]
	pt := make( []byte, len(blob) - IVSize )
	cipher.NewCBCDecrypter( block, iv ).CryptBlocks( pt, blob[IVSize:] )
	return Unpad( pt, BlockSize )
}

// Pad appends PKCS#7 padding. There is always at least one byte of padding,
// so the result is never empty.
func Pad( data []byte, blockSize int ) []byte {
	n := blockSize - len(data) % blockSize
	out := make( []byte, len(data), len(data) + n )
	copy( out, data )
	return append( out, bytes.Repeat( []byte{ byte(n) }, n )... )
}

// Unpad strips PKCS#7 padding and checks every padding byte.
func Unpad( data []byte, blockSize int ) ([]byte, error) {
	if len(data) == 0 || len(data) % blockSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrPadding, len(data))
	}
	n := int( data[len(data)-1] )
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: trailer %d", ErrPadding, n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrPadding
		}
	}
	return data[:len(data)-n], nil
}
