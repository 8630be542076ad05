package util
import (
	"log"
)

// switched on by the IMGSTEG_DEBUG environment variable
var DebugMode = false

func DebugPrintln( args ...any ) {
	if DebugMode == true {
		log.Println( args... )
	}
}

func DebugPrintf( format string, args ...any ) {
	if DebugMode == true {
		log.Printf( format, args... )
	}
}
