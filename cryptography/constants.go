package cryptography
import (
	"crypto/des"
	"crypto/sha512"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// block cipher envelope
	BlockSize = des.BlockSize	// DES and 3DES share the 64-bit block
	IVSize = BlockSize
	DESKeySize = 8
	TripleDESKeySize = 24
	MinBlobSize = IVSize + BlockSize

	// names used in configuration
	CipherDES = "des"
	CipherTripleDES = "3des"

	// sealing of local files (log)
	SymKeySize = chacha20poly1305.KeySize
	NonceSize = chacha20poly1305.NonceSizeX
	SaltSize = 16

	HashSize = sha512.Size
)
