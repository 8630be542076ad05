package batch
import (
	"os"
	"fmt"
	"time"
	"context"
	"path/filepath"
	"golang.org/x/sync/errgroup"

	"imgsteg/util"
	"imgsteg/config"
	"imgsteg/cryptography"
	"imgsteg/stegano/img"
)

/*
 * package batch runs hide/restore over every configured input pair.
 * Units are independent: a failing unit is logged, journaled and reported
 * in its Result, its siblings keep running.
 */

const (
	OpHide = "hide"
	OpRestore = "restore"
)

type Result struct {
	Index		int
	Elapsed		time.Duration
	Output		string		// main file written by the unit
	Err		error
}

type Runner struct {
	conf		*config.BatchConfig
	key		[]byte
	logger		*util.Logger
	journal		*util.Journal	// optional
}

func NewRunner( conf *config.BatchConfig, key []byte, logger *util.Logger, journal *util.Journal ) *Runner {
	return &Runner{ conf, key, logger, journal }
}

func(r *Runner) CarrierPath( i int ) string {
	return fmt.Sprintf( r.conf.Input.CarrierPattern, i )
}

func(r *Runner) PayloadPath( i int ) string {
	return fmt.Sprintf( r.conf.Input.PayloadPattern, i )
}

func(r *Runner) MergedPath( i int ) string {
	return filepath.Join( r.conf.Output.MergedDir, fmt.Sprintf( "rr%d.%s", i, r.conf.Output.Format ) )
}

func(r *Runner) EncryptedPath( i int ) string {
	return filepath.Join( r.conf.Output.EncryptedDir, fmt.Sprintf( "encrypted_s%d.bin", i ) )
}

// the payload file is restored with its original extension
func(r *Runner) DecryptedPath( i int ) string {
	ext := filepath.Ext( r.PayloadPath( i ) )
	return filepath.Join( r.conf.Output.DecryptedDir, fmt.Sprintf( "decrypted_s%d%s", i, ext ) )
}

func(r *Runner) RecoveredPath( i int ) string {
	return filepath.Join( r.conf.Output.RecoveredDir, fmt.Sprintf( "dd%d.%s", i, r.conf.Output.Format ) )
}

// Hide encrypts every payload file and merges it into its carrier.
func(r *Runner) Hide( ctx context.Context ) ([]Result, error) {
	if err := util.EnsureDirs( r.conf.Output.MergedDir, r.conf.Output.EncryptedDir ); err != nil {
		return nil, fmt.Errorf("Failed to create output directories: %w", err)
	}
	return r.run( ctx, OpHide, r.hideUnit ), nil
}

// Restore decrypts every stored payload and unmerges every merged image.
func(r *Runner) Restore( ctx context.Context ) ([]Result, error) {
	if err := util.EnsureDirs( r.conf.Output.DecryptedDir, r.conf.Output.RecoveredDir ); err != nil {
		return nil, fmt.Errorf("Failed to create output directories: %w", err)
	}
	return r.run( ctx, OpRestore, r.restoreUnit ), nil
}

func(r *Runner) hideUnit( i int ) (string, string, error) {
	payloadBytes, err := os.ReadFile( r.PayloadPath( i ) )
	if err != nil {
		return "", "", err
	}
	blob, err := cryptography.Encrypt( payloadBytes, r.key )
	if err != nil {
		return "", "", fmt.Errorf("Failed to encrypt payload: %w", err)
	}
	if err = os.WriteFile( r.EncryptedPath( i ), blob, 0660 ); err != nil {
		return "", "", err
	}

	carrier, err := img.Load( r.CarrierPath( i ) )
	if err != nil {
		return "", "", err
	}
	payload, _, err := img.DecodeBytes( payloadBytes )
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", r.PayloadPath( i ), err)
	}
	merged, err := img.Merge( carrier, payload )
	if err != nil {
		return "", "", err
	}
	data, err := img.EncodeBytes( merged, r.conf.Output.Format )
	if err != nil {
		return "", "", err
	}
	out := r.MergedPath( i )
	if err = os.WriteFile( out, data, 0660 ); err != nil {
		return "", "", err
	}
	return out, cryptography.Hash( data ), nil
}

func(r *Runner) restoreUnit( i int ) (string, string, error) {
	blob, err := os.ReadFile( r.EncryptedPath( i ) )
	if err != nil {
		return "", "", err
	}
	payloadBytes, err := cryptography.Decrypt( blob, r.key )
	if err != nil {
		return "", "", fmt.Errorf("Failed to decrypt %s: %w", r.EncryptedPath( i ), err)
	}
	if err = os.WriteFile( r.DecryptedPath( i ), payloadBytes, 0660 ); err != nil {
		return "", "", err
	}

	merged, err := img.Load( r.MergedPath( i ) )
	if err != nil {
		return "", "", err
	}
	recovered, extent := img.UnmergeExtent( merged )
	util.DebugPrintf( "unit %d: inferred payload extent %dx%d\n", i, extent.Dx(), extent.Dy() )
	out := r.RecoveredPath( i )
	if err = img.Save( recovered, out ); err != nil {
		return "", "", err
	}
	return out, cryptography.Hash( payloadBytes ), nil
}

type unitFunc func( i int ) (output string, digest string, err error)

// run executes unit for every index on a pool of conf.Workers goroutines.
// Results are returned in index order.
func(r *Runner) run( ctx context.Context, op string, unit unitFunc ) []Result {
	count := r.conf.Input.Count
	results := make( []Result, count )

	var g errgroup.Group
	g.SetLimit( r.conf.Workers )
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			for j := i; j < count; j++ {
				results[j] = Result{ Index: j, Err: err }
			}
			break
		}
		i := i
		g.Go( func() error {
			start := time.Now()
			out, digest, err := unit( i )
			elapsed := time.Since( start )
			results[i] = Result{ i, elapsed, out, err }
			r.report( op, results[i], digest )
			// never fail the group, siblings must keep running
			return nil
		})
	}
	g.Wait()
	return results
}

func(r *Runner) report( op string, res Result, digest string ) {
	if res.Err != nil {
		r.logger.LogError( fmt.Errorf("%s unit %d failed after %v: %w", op, res.Index, res.Elapsed, res.Err) )
	} else {
		r.logger.LogInfo( fmt.Sprintf("%s unit %d -> %s in %v", op, res.Index, res.Output, res.Elapsed) )
	}
	if r.journal == nil {
		return
	}
	err := r.journal.Record( util.JournalEntry{
		Op: op,
		Unit: res.Index,
		Elapsed: res.Elapsed,
		Err: res.Err,
		Digest: digest,
	})
	if err != nil {
		r.logger.LogWarning( "Failed to journal unit: " + err.Error() )
	}
}
