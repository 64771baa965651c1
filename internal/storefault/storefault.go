// Package storefault classifies faults raised by the backing store that job
// bodies consult. The store itself lives outside this runtime; only its fault
// categories matter here, because each category owns a reserved process exit
// code that the supervising side reacts to.
package storefault

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Category is a backing-store fault class with a reserved exit code.
type Category int

const (
	OutOfMemory Category = iota
	HashTableFull
	HeapFull
	IndexCorrupt
	IndexCannotOpen
	IndexMisuse
	IndexIntegrity
)

// Reserved exit codes start above the generic codes (0..3) so the owning
// supervisor can react per category. IndexCannotOpen lands on 14.
const codeBase = 10

func (c Category) ExitCode() int {
	return codeBase + int(c)
}

func (c Category) String() string {
	switch c {
	case OutOfMemory:
		return "out-of-memory"
	case HashTableFull:
		return "hash-table-full"
	case HeapFull:
		return "heap-full"
	case IndexCorrupt:
		return "index-corrupt"
	case IndexCannotOpen:
		return "index-cannot-open"
	case IndexMisuse:
		return "index-misuse"
	case IndexIntegrity:
		return "index-integrity-failure"
	default:
		return fmt.Sprintf("unknown-store-fault(%d)", int(c))
	}
}

// FromExitCode reports which category a reserved exit code belongs to.
func FromExitCode(code int) (Category, bool) {
	if code < codeBase || code > codeBase+int(IndexIntegrity) {
		return 0, false
	}
	return Category(code - codeBase), true
}

// Fault is a classified backing-store error.
type Fault struct {
	Category Category
	Err      error
}

func New(c Category, msg string) *Fault {
	return &Fault{Category: c, Err: errors.New(msg)}
}

// Wrap classifies an underlying store error.
func Wrap(c Category, err error) *Fault {
	return &Fault{Category: c, Err: err}
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return f.Category.String()
	}
	return fmt.Sprintf("%s: %v", f.Category, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// CategoryOf extracts the fault category from an error chain.
func CategoryOf(err error) (Category, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Category, true
	}
	return 0, false
}

// FromSQLite classifies an error coming out of a SQLite-backed index. The
// index fault categories map onto SQLite result codes; errors that are not
// sqlite3 errors, or carry no classified code, pass through unchanged.
func FromSQLite(err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return err
	}
	switch serr.Code {
	case sqlite3.ErrCorrupt:
		return Wrap(IndexCorrupt, err)
	case sqlite3.ErrCantOpen:
		return Wrap(IndexCannotOpen, err)
	case sqlite3.ErrMisuse:
		return Wrap(IndexMisuse, err)
	case sqlite3.ErrNotADB:
		return Wrap(IndexIntegrity, err)
	case sqlite3.ErrNomem:
		return Wrap(OutOfMemory, err)
	case sqlite3.ErrFull:
		return Wrap(HeapFull, err)
	default:
		return err
	}
}

// Categories lists every category in exit-code order.
func Categories() []Category {
	return []Category{
		OutOfMemory, HashTableFull, HeapFull,
		IndexCorrupt, IndexCannotOpen, IndexMisuse, IndexIntegrity,
	}
}
