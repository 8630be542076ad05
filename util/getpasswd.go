package util
import (
	"os"
	"fmt"
	"bufio"
	"strings"
	"golang.org/x/term"
)

// GetPasswd reads a passphrase without echo. When stdin is not a terminal
// the first line is used, so scripts can pipe the passphrase in.
func GetPasswd( prompt string ) ([]byte, error) {
	fd := int( os.Stdin.Fd() )
	if !term.IsTerminal( fd ) {
		line, err := bufio.NewReader( os.Stdin ).ReadString( '\n' )
		if err != nil && line == "" {
			return nil, err
		}
		return []byte( FixUnicode( strings.TrimRight( line, "\r\n" ) ) ), nil
	}
	fmt.Fprint( os.Stderr, prompt )
	bytepw, err := term.ReadPassword( fd )
	fmt.Fprintln( os.Stderr )
	if err != nil {
		return nil, err
	}
	return []byte( FixUnicode( string(bytepw) ) ), nil
}
