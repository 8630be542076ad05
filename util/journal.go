package util
import (
	"time"
	"net/url"
	"database/sql"
	_ "github.com/xeodou/go-sqlcipher"
)

/*
 * an encrypted sqlite journal of batch runs: one row per processed unit
 * with its elapsed time.
 */
type Journal struct {
	db		*sql.DB
}

type JournalEntry struct {
	Op		string
	Unit		int
	Elapsed		time.Duration
	Err		error
	Digest		string		// hash of the produced output
}

type JournalStats struct {
	Runs		int
	Failures	int
	Total		time.Duration
	Max		time.Duration
}

func ConnectJournal( filename, password string ) (*Journal, error) {

	dbFilename := "file:" + url.QueryEscape( filename )
	dbFilename += "?_journal_mode=WAL&_key=" + url.QueryEscape( password )

	db, err := sql.Open( "sqlite3", dbFilename )
	if err != nil {
		return nil, err
	}
	return &Journal{ db }, nil
}

func(j *Journal) Close() {
	j.db.Close()
}

func(j *Journal) InitJournal() error {
	sqlStmt := `create table if not exists runs(
		id integer not null primary key autoincrement,
		op text not null,
		unit integer not null,
		elapsed_ns integer not null,
		ok integer not null,
		error text,
		digest text,
		created_at integer not null
	);`
	if _, err := j.db.Exec( sqlStmt ); err != nil {
		return err
	}
	_, err := j.db.Exec(`create index if not exists opIdx on runs(op);`)
	return err
}

func(j *Journal) Record( e JournalEntry ) error {
	ok := 1
	errText := ""
	if e.Err != nil {
		ok = 0
		errText = e.Err.Error()
	}
	_, err := j.db.Exec(
		"insert into runs(op, unit, elapsed_ns, ok, error, digest, created_at) values(?, ?, ?, ?, ?, ?, ?);",
		e.Op, e.Unit, int64(e.Elapsed), ok, errText, e.Digest, time.Now().Unix(),
	)
	return err
}

// Count returns the number of recorded units, all operations together.
func(j *Journal) Count() (int, error) {
	var amount int
	if err := j.db.QueryRow(`select count(*) from runs;`).Scan( &amount ); err != nil {
		return -1, err
	}
	return amount, nil
}

// Stats aggregates the recorded units of one operation.
func(j *Journal) Stats( op string ) (JournalStats, error) {
	var stats JournalStats
	var total, max int64
	row := j.db.QueryRow(
		`select count(*), coalesce(sum(1 - ok), 0), coalesce(sum(elapsed_ns), 0), coalesce(max(elapsed_ns), 0) from runs where op = ?;`,
		op,
	)
	if err := row.Scan( &stats.Runs, &stats.Failures, &total, &max ); err != nil {
		return stats, err
	}
	stats.Total = time.Duration( total )
	stats.Max = time.Duration( max )
	return stats, nil
}
