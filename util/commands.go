package util
import (
	"os"
	"fmt"
	"strconv"
	"unicode/utf8"
	"encoding/base64"
	"imgsteg/cryptography"
)

/*
 * user-related commands which do not touch images.
 */

// ReadLog returns the content of a log file, opening it with password
// (<base64 salt>:<password>) if it is sealed.
func ReadLog( log string, password string ) (string, error) {
	data, err := os.ReadFile( log )
	if err != nil {
		return "", fmt.Errorf("Failed to read file: %w", err)
	}

	if password != "" {
		pass, saltBytes, err := cryptography.SplitWithSalt( password )
		if err != nil {
			return "", fmt.Errorf("Invalid log password: %w", err)
		}
		key := cryptography.DeriveKey( []byte( FixUnicode( string(pass) ) ), saltBytes, cryptography.SymKeySize )
		logs, err := cryptography.Open( data, key )
		if err == nil {
			return string(logs), nil
		}
	}

	// logs are unencrypted?
	// checking for plaintext
	strLogs := string(data)
	if !utf8.ValidString( strLogs ) {
		return "", fmt.Errorf("Failed to decrypt logs: invalid password.")
	}
	for _, run := range strLogs {
		if run != '\n' && run != '\033' && strconv.IsPrint( run ) == false {
			return "", fmt.Errorf("Failed to decrypt logs: invalid password.")
		}
	}
	return strLogs, nil
}

// GenSalt writes a fresh salt into filename and returns its base64 form.
func GenSalt( filename string ) (string, error) {
	saltBytes, err := cryptography.GenRandom( cryptography.SaltSize )
	if err != nil {
		return "", err
	}
	if err = os.WriteFile( filename, saltBytes, 0600 ); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString( saltBytes ), nil
}

// ReadSalt reads a salt file, generating it on first use.
func ReadSalt( filename string ) ([]byte, error) {
	salt, err := os.ReadFile( filename )
	if err == nil {
		if len(salt) == 0 {
			return nil, fmt.Errorf("Salt file %s is empty", filename)
		}
		return salt, nil
	}
	if !os.IsNotExist( err ) {
		return nil, err
	}
	if _, err = GenSalt( filename ); err != nil {
		return nil, err
	}
	return os.ReadFile( filename )
}
