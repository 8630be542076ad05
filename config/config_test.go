package config
import (
	"os"
	"strings"
	"testing"
	"path/filepath"
)

func TestSaveAndLoadConfig( t *testing.T ) {
	dir := t.TempDir()
	conf := DefaultConfig( dir )
	conf.Workers = 7
	conf.Input.Count = 3
	conf.Cipher.Cipher = "3des"
	conf.Cipher.Key = strings.Repeat( "ab", 24 )

	filename := filepath.Join( dir, "config.yaml" )
	if err := SaveConfig( filename, conf ); err != nil {
		t.Fatalf("Failed to save configuration: %s", err.Error())
	}
	conf2, err := LoadConfig( filename )
	if err != nil {
		t.Fatalf("Failed to load configuration: %s", err.Error())
	}
	if conf2.Workers != 7 || conf2.Input.Count != 3 || conf2.Cipher.Key != conf.Cipher.Key ||
		conf2.Output.MergedDir != conf.Output.MergedDir || conf2.Logger.Mode != conf.Logger.Mode {
		t.Errorf("Configuration was changed during save/load: %+v != %+v", conf, conf2)
	}
	if err := conf2.Validate(); err != nil {
		t.Errorf("Saved configuration is invalid: %v", err)
	}
}

func TestPartialConfig( t *testing.T ) {
	dir := t.TempDir()
	filename := filepath.Join( dir, "config.yaml" )
	data := "workers: 2\ninput:\n  count: 5\n  carrier_pattern: c/%d.bmp\n  payload_pattern: p/%d.png\n"
	if err := os.WriteFile( filename, []byte(data), 0600 ); err != nil {
		t.Fatal(err)
	}
	conf, err := LoadConfig( filename )
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if conf.Workers != 2 || conf.Input.Count != 5 || conf.Input.CarrierPattern != "c/%d.bmp" {
		t.Errorf("Values were not read: %+v", conf.Input)
	}
	// the rest falls back to defaults
	if conf.Output.Format != "png" || conf.Cipher.SaltFile != filepath.Join( dir, "salt.bin" ) {
		t.Errorf("Defaults were not applied: %+v %+v", conf.Output, conf.Cipher)
	}
}

func TestValidate( t *testing.T ) {
	broken := []func( c *BatchConfig ){
		func( c *BatchConfig ){ c.Workers = 0 },
		func( c *BatchConfig ){ c.Input.Count = 0 },
		func( c *BatchConfig ){ c.Input.CarrierPattern = "big/b.png" },
		func( c *BatchConfig ){ c.Input.PayloadPattern = "small/%s%d.png" },
		func( c *BatchConfig ){ c.Output.Format = "jpeg" },
		func( c *BatchConfig ){ c.Cipher.Cipher = "aes" },
		func( c *BatchConfig ){ c.Cipher.Key = "3132" },
		func( c *BatchConfig ){ c.Cipher.SaltFile = "" },
	}
	if err := DefaultConfig( "/tmp" ).Validate(); err != nil {
		t.Fatalf("Default configuration is invalid: %v", err)
	}
	for i, breakIt := range broken {
		conf := DefaultConfig( "/tmp" )
		breakIt( conf )
		if err := conf.Validate(); err == nil {
			t.Errorf("Broken configuration %d passed validation", i)
		}
	}
}
