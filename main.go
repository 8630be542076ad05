package main
import (
	"os"
	"fmt"
	"context"
	"os/signal"
	"path/filepath"

	"imgsteg/util"
	"imgsteg/batch"
	"imgsteg/config"
	"imgsteg/cryptography"
	"imgsteg/stegano/img"
)

const (
	ImgstegFolder = ".imgsteg"
	ConfigFilename = "config.yaml"
	ConfigVariableName = "IMGSTEG_CONFIG"
	DebugVariableName = "IMGSTEG_DEBUG"
)

func main() {

	if len( os.Args ) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		help()
		return
	}
	if os.Getenv( DebugVariableName ) != "" {
		util.DebugMode = true
	}

	// commands which need neither configuration nor keys
	switch os.Args[1] {
	case "merge":
		needArgs( 3 )
		if err := mergeFiles( os.Args[2], os.Args[3], os.Args[4] ); err != nil {
			fatal( "Failed to merge images:", err )
		}
		return
	case "unmerge":
		needArgs( 2 )
		if err := unmergeFile( os.Args[2], os.Args[3] ); err != nil {
			fatal( "Failed to unmerge image:", err )
		}
		return
	}

	configFile, err := configPath()
	if err != nil {
		fatal( "Failed to locate configuration:", err )
	}

	if os.Args[1] == "genconfig" {
		if err = genConfig( configFile ); err != nil {
			fatal( "Failed to save default configuration:", err )
		}
		fmt.Println( "[+] Configuration written to", configFile )
		return
	}

	conf, err := config.LoadConfig( configFile )
	if err != nil {
		fatal( "Failed to load configuration (run `imgsteg genconfig` first):", err )
	}

	switch os.Args[1] {
	case "gensalt":
		salt, err := util.GenSalt( conf.Cipher.SaltFile )
		if err != nil {
			fatal( "Failed to generate salt:", err )
		}
		// handy for logger_config.password
		fmt.Println( "[+] Generated salt:", salt )
	case "encrypt", "decrypt":
		needArgs( 2 )
		key := resolveKey( conf )
		if err = cryptFile( os.Args[1] == "encrypt", os.Args[2], os.Args[3], key ); err != nil {
			fatal( "Failed to " + os.Args[1] + " file:", err )
		}
	case "hide", "restore":
		if err = runBatch( os.Args[1], conf ); err != nil {
			fatal( "Failed to run batch:", err )
		}
	case "readlog":
		logs, err := util.ReadLog( conf.Logger.Filename, conf.Logger.Password )
		if err != nil {
			fatal( "Failed to read log file:", err )
		}
		fmt.Print( logs )
	case "journal":
		if err = printJournal( conf ); err != nil {
			fatal( "Failed to read journal:", err )
		}
	default:
		help()
	}
}

func configPath() (string, error) {
	if path := os.Getenv( ConfigVariableName ); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	folder := filepath.Join( home, ImgstegFolder )
	if err = os.MkdirAll( folder, 0760 ); err != nil {
		return "", err
	}
	return filepath.Join( folder, ConfigFilename ), nil
}

func genConfig( configFile string ) error {
	if _, err := os.Stat( configFile ); err == nil {
		return fmt.Errorf("%s already exists", configFile)
	}
	return config.SaveConfig( configFile, config.DefaultConfig( filepath.Dir( configFile ) ) )
}

func resolveKey( conf *config.BatchConfig ) []byte {
	key, err := batch.ResolveKey( &conf.Cipher, func() ([]byte, error) {
		return util.GetPasswd( "Passphrase: " )
	})
	if err != nil {
		fatal( "Failed to get key:", err )
	}
	return key
}

func mergeFiles( carrierFile, payloadFile, output string ) error {
	carrier, err := img.Load( carrierFile )
	if err != nil {
		return err
	}
	payload, err := img.Load( payloadFile )
	if err != nil {
		return err
	}
	merged, err := img.Merge( carrier, payload )
	if err != nil {
		return err
	}
	return img.Save( merged, output )
}

func unmergeFile( mergedFile, output string ) error {
	merged, err := img.Load( mergedFile )
	if err != nil {
		return err
	}
	recovered, extent := img.UnmergeExtent( merged )
	fmt.Printf( "[+] Recovered %dx%d payload\n", extent.Dx(), extent.Dy() )
	return img.Save( recovered, output )
}

func cryptFile( encrypt bool, input, output string, key []byte ) error {
	data, err := os.ReadFile( input )
	if err != nil {
		return err
	}
	if encrypt {
		data, err = cryptography.Encrypt( data, key )
	} else {
		data, err = cryptography.Decrypt( data, key )
	}
	if err != nil {
		return err
	}
	return os.WriteFile( output, data, 0660 )
}

func runBatch( op string, conf *config.BatchConfig ) error {
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("Invalid configuration: %w", err)
	}
	logger, err := util.NewLogger( &conf.Logger )
	if err != nil {
		return err
	}
	key := resolveKey( conf )

	var journal *util.Journal
	if conf.Journal.File != "" {
		journal, err = util.ConnectJournal( conf.Journal.File, conf.Journal.Password )
		if err != nil {
			return err
		}
		defer journal.Close()
		if err = journal.InitJournal(); err != nil {
			// timings are nice to have, the batch still runs
			logger.LogWarning( "Failed to initialize journal: " + err.Error() )
			journal = nil
		}
	}

	ctx, stop := signal.NotifyContext( context.Background(), os.Interrupt )
	defer stop()

	runner := batch.NewRunner( conf, key, logger, journal )
	var results []batch.Result
	if op == batch.OpHide {
		results, err = runner.Hide( ctx )
	} else {
		results, err = runner.Restore( ctx )
	}
	if err != nil {
		return err
	}
	return batch.WriteReport( os.Stdout, op, results )
}

func printJournal( conf *config.BatchConfig ) error {
	journal, err := util.ConnectJournal( conf.Journal.File, conf.Journal.Password )
	if err != nil {
		return err
	}
	defer journal.Close()
	for _, op := range []string{ batch.OpHide, batch.OpRestore } {
		stats, err := journal.Stats( op )
		if err != nil {
			return err
		}
		fmt.Printf( "%-8s runs: %d failed: %d total: %v slowest: %v\n",
			op, stats.Runs, stats.Failures, stats.Total, stats.Max )
	}
	return nil
}

func needArgs( n int ) {
	if len( os.Args ) < n + 2 {
		help()
		os.Exit(-1)
	}
}

func fatal( args ...any ) {
	fmt.Fprintln( os.Stderr, args... )
	os.Exit(-1)
}

func help() {
	line := `Usage: ./imgsteg <command> [arguments]

The following commands are supported:
	merge <carrier> <payload> <output>	hide payload image inside carrier image
	unmerge <merged> <output>		recover an approximate payload image
	encrypt <input> <output>		encrypt a file into an IV-prefixed blob
	decrypt <input> <output>		decrypt a blob produced by encrypt
	hide					encrypt and merge every configured pair
	restore					decrypt and unmerge every configured pair
	genconfig				write default configuration
	gensalt					generate salt for key derivation
	readlog					read log file
	journal					print timing statistics

Configuration is read from ~/.imgsteg/config.yaml or $IMGSTEG_CONFIG.
`

	fmt.Printf("%s", line)
}
