package util
import (
	"os"
	"golang.org/x/text/unicode/norm"
)

func FixUnicode( in string ) string {
	return norm.NFC.String( in )
}

// EnsureDirs creates every directory which does not exist yet.
func EnsureDirs( dirs ...string ) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll( dir, 0770 ); err != nil {
			return err
		}
	}
	return nil
}
