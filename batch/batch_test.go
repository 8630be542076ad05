package batch
import (
	"os"
	"fmt"
	"bytes"
	"errors"
	"context"
	"strings"
	"testing"
	"time"
	"image"
	"image/color"
	"math/rand"
	"path/filepath"

	"imgsteg/util"
	"imgsteg/config"
	"imgsteg/cryptography"
	"imgsteg/stegano/img"
)

func writeNoise( t *testing.T, rng *rand.Rand, path string, w, h int ) {
	m := image.NewNRGBA( image.Rect( 0, 0, w, h ) )
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA( x, y, color.NRGBA{ uint8(rng.Intn(256)) | 0x10, uint8(rng.Intn(256)), uint8(rng.Intn(256)), 0xff } )
		}
	}
	if err := img.Save( m, path ); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
}

// setup builds count pairs; the payload of unit `tooLarge` does not fit.
func setup( t *testing.T, count, tooLarge int ) (*config.BatchConfig, string) {
	dir := t.TempDir()
	rng := rand.New( rand.NewSource( 5 ) )
	os.Mkdir( filepath.Join( dir, "big" ), 0770 )
	os.Mkdir( filepath.Join( dir, "small" ), 0770 )
	for i := 0; i < count; i++ {
		writeNoise( t, rng, filepath.Join( dir, "big", fmt.Sprintf( "b%d.png", i ) ), 8, 8 )
		if i == tooLarge {
			writeNoise( t, rng, filepath.Join( dir, "small", fmt.Sprintf( "s%d.png", i ) ), 9, 4 )
		} else {
			writeNoise( t, rng, filepath.Join( dir, "small", fmt.Sprintf( "s%d.png", i ) ), 4, 3 )
		}
	}

	conf := config.DefaultConfig( dir )
	conf.Workers = 3
	conf.Input.Count = count
	conf.Input.CarrierPattern = filepath.Join( dir, "big", "b%d.png" )
	conf.Input.PayloadPattern = filepath.Join( dir, "small", "s%d.png" )
	conf.Output.MergedDir = filepath.Join( dir, "out", "merged" )
	conf.Output.EncryptedDir = filepath.Join( dir, "out", "encrypted" )
	conf.Output.DecryptedDir = filepath.Join( dir, "out", "decrypted" )
	conf.Output.RecoveredDir = filepath.Join( dir, "out", "recovered" )
	conf.Cipher.Key = "3132333435363738"
	conf.Logger.IsColored = false
	if err := conf.Validate(); err != nil {
		t.Fatalf("Invalid test configuration: %v", err)
	}
	return conf, dir
}

func newRunner( t *testing.T, conf *config.BatchConfig, journal *util.Journal ) *Runner {
	logger, err := util.NewLogger( &conf.Logger )
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	key, err := ResolveKey( &conf.Cipher, nil )
	if err != nil {
		t.Fatalf("Failed to resolve key: %v", err)
	}
	return NewRunner( conf, key, logger, journal )
}

func TestHideAndRestore( t *testing.T ) {
	conf, _ := setup( t, 5, 2 )

	journal, err := util.ConnectJournal( conf.Journal.File, "journal-password" )
	if err != nil {
		t.Fatalf("Failed to connect journal: %v", err)
	}
	defer journal.Close()
	if err = journal.InitJournal(); err != nil {
		t.Fatalf("Failed to init journal: %v", err)
	}

	r := newRunner( t, conf, journal )
	hidden, err := r.Hide( context.Background() )
	if err != nil {
		t.Fatalf("Failed to hide: %v", err)
	}
	if len(hidden) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(hidden))
	}
	for i, res := range hidden {
		if res.Index != i {
			t.Errorf("Result %d has index %d", i, res.Index)
		}
		if i == 2 {
			if !errors.Is( res.Err, img.ErrDimension ) {
				t.Errorf("Unit 2: expected ErrDimension, got %v", res.Err)
			}
			continue
		}
		if res.Err != nil {
			t.Errorf("Unit %d failed: %v", i, res.Err)
		}
		merged, err := img.Load( res.Output )
		if err != nil {
			t.Fatalf("Failed to load merged image: %v", err)
		}
		if merged.Bounds().Size() != image.Pt( 8, 8 ) {
			t.Errorf("Merged image has size %v", merged.Bounds().Size())
		}
	}

	restored, err := r.Restore( context.Background() )
	if err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}
	for i, res := range restored {
		if i == 2 {
			if res.Err == nil {
				t.Errorf("Unit 2 restored without a merged image")
			}
			continue
		}
		if res.Err != nil {
			t.Fatalf("Unit %d failed: %v", i, res.Err)
		}
		orig, _ := os.ReadFile( r.PayloadPath( i ) )
		decrypted, err := os.ReadFile( r.DecryptedPath( i ) )
		if err != nil || !bytes.Equal( orig, decrypted ) {
			t.Errorf("Unit %d: decrypted payload differs from the original", i)
		}
		recovered, err := img.Load( res.Output )
		if err != nil {
			t.Fatalf("Failed to load recovered image: %v", err)
		}
		if recovered.Bounds().Size() != image.Pt( 4, 3 ) {
			t.Errorf("Unit %d: recovered size %v, want 4x3", i, recovered.Bounds().Size())
		}
	}

	stats, err := journal.Stats( OpHide )
	if err != nil || stats.Runs != 5 || stats.Failures != 1 {
		t.Errorf("Unexpected hide stats %+v (%v)", stats, err)
	}
	stats, err = journal.Stats( OpRestore )
	if err != nil || stats.Runs != 5 || stats.Failures != 1 {
		t.Errorf("Unexpected restore stats %+v (%v)", stats, err)
	}

	logs, err := util.ReadLog( conf.Logger.Filename, "" )
	if err != nil || !strings.Contains( logs, "hide unit 2 failed" ) {
		t.Errorf("Failure of unit 2 was not logged: %v", err)
	}
}

func TestRestoreWrongKey( t *testing.T ) {
	conf, _ := setup( t, 2, -1 )
	r := newRunner( t, conf, nil )
	if _, err := r.Hide( context.Background() ); err != nil {
		t.Fatalf("Failed to hide: %v", err)
	}

	conf.Cipher.Key = "3837363534333231"
	r = newRunner( t, conf, nil )
	results, err := r.Restore( context.Background() )
	if err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			if !errors.Is( res.Err, cryptography.ErrPadding ) {
				t.Errorf("Unexpected error: %v", res.Err)
			}
			failed++
		}
	}
	// a wrong key passes the padding check with a probability of ~1/256
	if failed == 0 {
		t.Errorf("Every unit was restored with a wrong key")
	}
}

func TestCancelledBatch( t *testing.T ) {
	conf, _ := setup( t, 3, -1 )
	r := newRunner( t, conf, nil )
	ctx, cancel := context.WithCancel( context.Background() )
	cancel()
	results, err := r.Hide( ctx )
	if err != nil {
		t.Fatalf("Failed to hide: %v", err)
	}
	for _, res := range results {
		if !errors.Is( res.Err, context.Canceled ) {
			t.Errorf("Unit %d: expected context.Canceled, got %v", res.Index, res.Err)
		}
	}
	if _, err := os.Stat( r.MergedPath( 0 ) ); err == nil {
		t.Errorf("A cancelled batch produced output")
	}
}

func TestResolveKey( t *testing.T ) {
	dir := t.TempDir()
	conf := &config.CipherConfig{
		Cipher: cryptography.CipherTripleDES,
		SaltFile: filepath.Join( dir, "salt.bin" ),
	}
	pass := func() ([]byte, error) { return []byte("correct horse"), nil }

	k1, err := ResolveKey( conf, pass )
	if err != nil || len(k1) != cryptography.TripleDESKeySize {
		t.Fatalf("Failed to derive key: %v (%d bytes)", err, len(k1))
	}
	k2, _ := ResolveKey( conf, pass )
	if !bytes.Equal( k1, k2 ) {
		t.Errorf("Derived keys differ for the same salt file")
	}

	empty := func() ([]byte, error) { return nil, nil }
	if _, err := ResolveKey( conf, empty ); err == nil {
		t.Errorf("Empty passphrase accepted")
	}

	conf.Cipher = cryptography.CipherDES
	conf.Key = "3132333435363738"
	key, err := ResolveKey( conf, nil )
	if err != nil || string(key) != "12345678" {
		t.Errorf("Failed to decode configured key: %v", err)
	}
}

func TestWriteReport( t *testing.T ) {
	results := []Result{
		{ Index: 0, Elapsed: 2 * time.Millisecond },
		{ Index: 1, Elapsed: 4 * time.Millisecond },
		{ Index: 2, Elapsed: time.Millisecond, Err: errors.New("broken") },
	}
	s := Summarize( results )
	if s.Units != 3 || s.Failed != 1 || s.Total != 7 * time.Millisecond || s.Max != 4 * time.Millisecond {
		t.Errorf("Unexpected summary %+v", s)
	}

	buf := new(bytes.Buffer)
	if err := WriteReport( buf, OpHide, results ); err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{ "Time to hide 3 images", "FAILED: broken", strings.Repeat( "#", barWidth ) } {
		if !strings.Contains( out, want ) {
			t.Errorf("Report misses %q:\n%s", want, out)
		}
	}
}
