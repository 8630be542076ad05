package batch
import (
	"fmt"
	"imgsteg/util"
	"imgsteg/config"
	"imgsteg/cryptography"
)

// PassphraseFunc supplies a passphrase when no raw key is configured.
type PassphraseFunc func() ([]byte, error)

// ResolveKey returns the configured hex key, or derives one of the cipher's
// size from a passphrase and the salt file.
func ResolveKey( conf *config.CipherConfig, passphrase PassphraseFunc ) ([]byte, error) {
	if conf.Key != "" {
		return cryptography.DecodeKey( conf.Key, conf.Cipher )
	}
	size, err := cryptography.KeySize( conf.Cipher )
	if err != nil {
		return nil, err
	}
	salt, err := util.ReadSalt( conf.SaltFile )
	if err != nil {
		return nil, fmt.Errorf("Failed to get salt bytes: %w", err)
	}
	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("Failed to read passphrase: %w", err)
	}
	if len(pass) == 0 {
		return nil, fmt.Errorf("Empty passphrase")
	}
	return cryptography.DeriveKey( []byte( util.FixUnicode( string(pass) ) ), salt, uint32(size) ), nil
}
