package cryptography
import (
	"fmt"
	"strings"
	"runtime"
	"crypto/rand"
	"crypto/sha512" // used for hashing data
	"encoding/hex"
	"encoding/base64"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// xchacha20poly1305 encryption+authentication, used for local files only.
func Seal( data, key []byte ) ( []byte, error ) {

	if len(data) == 0 {
		return nil, nil
	}

	if len(key) != SymKeySize {
		return nil, fmt.Errorf("Invalid key")
	}
	aead, err := chacha20poly1305.NewX( key )
	if err != nil {
		return nil, err
	}
	nonce, err := GenRandom( NonceSize )
	if err != nil {
		return nil, err
	}

	return aead.Seal( nonce, nonce, data, nil ), nil
}

func Open( data, key []byte ) ( []byte, error ) {

	if len(data) == 0 {
		return nil, nil
	}

	if len(key) != SymKeySize {
		return nil, fmt.Errorf("Invalid key")
	}

	if len(data) < NonceSize {
		return nil, fmt.Errorf("Invalid length of data")
	}

	aead, err := chacha20poly1305.NewX( key )
	if err != nil {
		return nil, err
	}
	return aead.Open( nil, data[:NonceSize], data[NonceSize:], nil )
}


// generate a random amount of bytes
func GenRandom( size uint ) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("[cryptography/common.go] GenRandom: Invalid size of random data")
	}
	data := make( []byte, size )
	if _, err := rand.Read( data ); err != nil {
		return nil, err
	}
	return data, nil
}

// calculate the hash of data
func Hash( data []byte ) string {
	if data == nil {
		return ""
	}
	hash := sha512.Sum512( data )
	return hex.EncodeToString( hash[:] )
}

// verify hash of data
func VerifyHash( data []byte, hash string ) bool {

	if data == nil && hash == "" {
		return true
	} else if data == nil || hash == "" {
		return false
	}
	return hash == Hash( data )
}

// format: <base64-encoded-salt>:<password>
func SplitWithSalt( password string ) ([]byte, []byte, error) {
	parts := strings.Split( password, ":" )
	if len(parts) < 2 {
		return nil, nil, fmt.Errorf("no salt supplied")
	} else if len(parts) > 2 {
		// consider the first ':' is a delimeter
		parts[1] = strings.Join(parts[1:], ":")
	}
	saltBytes, err := base64.StdEncoding.DecodeString( parts[0] )
	if err != nil {
		return nil, nil, err
	}

	return []byte( parts[1] ), saltBytes, nil
}

// derive a key of the given size from password.
func DeriveKey( password, saltBytes []byte, size uint32 ) []byte {
	/*
	 * the draft RFC recommends time=3 and memory=32*1024 (32 MB) is a sensible number.
	 */
	threads := uint8(runtime.NumCPU())
	return argon2.IDKey( password, saltBytes, 3, 32 * 1024, threads, size )
}

// DecodeKey parses a hex key and checks it against the cipher's key size.
func DecodeKey( hexKey, cipherName string ) ([]byte, error) {
	size, err := KeySize( cipherName )
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString( strings.TrimSpace( hexKey ) )
	if err != nil {
		return nil, fmt.Errorf("Failed to decode key: %w", err)
	}
	if len(key) != size {
		return nil, fmt.Errorf("%w: %d bytes for %s", ErrKeySize, len(key), cipherName)
	}
	return key, nil
}
