package config

import (
	"os"
	"fmt"
	"strings"
	"path/filepath"
	"gopkg.in/yaml.v3"

	"imgsteg/cryptography"
	"imgsteg/stegano/img"
	"imgsteg/util"
)

/*
 * Input pairs. Patterns are fmt patterns with a single integer verb,
 * expanded for every unit index in [0, count).
 */
type InputConfig struct {
	CarrierPattern	string	`yaml:"carrier_pattern"`
	PayloadPattern	string	`yaml:"payload_pattern"`
	Count		int	`yaml:"count"`
}

/*
 * Where the batch puts what it produces. Hide writes merged and encrypted
 * files, restore reads them back and writes recovered and decrypted files.
 */
type OutputConfig struct {
	MergedDir	string	`yaml:"merged_dir"`
	EncryptedDir	string	`yaml:"encrypted_dir"`
	DecryptedDir	string	`yaml:"decrypted_dir"`
	RecoveredDir	string	`yaml:"recovered_dir"`
	Format		string	`yaml:"format"`	// png or bmp
}

/*
 * Block cipher settings. Key is hex; without it the key is derived from a
 * passphrase and the salt file.
 */
type CipherConfig struct {
	Cipher		string	`yaml:"cipher"`	// des or 3des
	Key		string	`yaml:"key"`
	SaltFile	string	`yaml:"salt_file"`
}

type JournalConfig struct {
	File		string	`yaml:"file"`
	Password	string	`yaml:"password"`
}

type BatchConfig struct {
	Workers		int			`yaml:"workers"`
	Input		InputConfig		`yaml:"input"`
	Output		OutputConfig		`yaml:"output"`
	Cipher		CipherConfig		`yaml:"cipher_config"`
	Journal		JournalConfig		`yaml:"journal_config"`
	Logger		util.LoggerInfo		`yaml:"logger_config"`
}

func DefaultConfig( folder string ) *BatchConfig {
	return &BatchConfig{
		Workers: 4,
		Input: InputConfig{
			CarrierPattern: "big/b%d.png",
			PayloadPattern: "small/s%d.png",
			Count: 10,
		},
		Output: OutputConfig{
			MergedDir: "resultoutpar",
			EncryptedDir: "encrypted",
			DecryptedDir: "decrypted",
			RecoveredDir: "decodepar",
			Format: img.FormatPNG,
		},
		Cipher: CipherConfig{
			Cipher: cryptography.CipherDES,
			SaltFile: filepath.Join( folder, "salt.bin" ),
		},
		Journal: JournalConfig{
			File: filepath.Join( folder, "journal.db" ),
		},
		Logger: util.LoggerInfo{
			Filename: filepath.Join( folder, "log.log" ),
			IsColored: true,
			SaveTime: true,
			Mode: util.Error | util.Warning | util.Info,
		},
	}
}

// Validate checks everything the batch relies on before any unit runs.
func(c *BatchConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Input.Count < 1 {
		return fmt.Errorf("count must be positive, got %d", c.Input.Count)
	}
	for _, p := range []string{ c.Input.CarrierPattern, c.Input.PayloadPattern } {
		if strings.Count( p, "%" ) != 1 || !strings.Contains( p, "%d" ) {
			return fmt.Errorf("pattern %q must contain exactly one %%d", p)
		}
	}
	if c.Output.Format != img.FormatPNG && c.Output.Format != img.FormatBMP {
		return fmt.Errorf("%w: output format %q", img.ErrLossyFormat, c.Output.Format)
	}
	if _, err := cryptography.KeySize( c.Cipher.Cipher ); err != nil {
		return err
	}
	if c.Cipher.Key != "" {
		if _, err := cryptography.DecodeKey( c.Cipher.Key, c.Cipher.Cipher ); err != nil {
			return err
		}
	} else if c.Cipher.SaltFile == "" {
		return fmt.Errorf("either a key or a salt file is required")
	}
	return nil
}

/*
 * Functions for loading and saving configuration in YAML format.
 */
func LoadConfig( filename string ) (*BatchConfig, error) {
	data, err := os.ReadFile( filename )
	if err != nil {
		return nil, err
	}

	conf := DefaultConfig( filepath.Dir( filename ) )
	if err := yaml.Unmarshal( data, conf ); err != nil {
		return nil, err
	}
	return conf, nil
}

func SaveConfig( filename string, c *BatchConfig ) error {
	data, err := yaml.Marshal( c )
	if err != nil {
		return err
	}
	return os.WriteFile( filename, data, 0600 )
}
