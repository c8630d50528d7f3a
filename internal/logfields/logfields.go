package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every package.
const (
	KeyCycleID    = "cycle_id"
	KeyDocument   = "document"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyTask       = "task"
	KeyDurationMS = "duration_ms"
	KeyChanged    = "changed"
	KeyRemoved    = "removed"
	KeyAffected   = "affected"
	KeyCompiled   = "compiled"
	KeyFailed     = "failed"
	KeyOp         = "op"
	KeyAddr       = "addr"
	KeyError      = "error"
)

func CycleID(id string) slog.Attr     { return slog.String(KeyCycleID, id) }
func Document(p string) slog.Attr     { return slog.String(KeyDocument, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Changed(n int) slog.Attr         { return slog.Int(KeyChanged, n) }
func Removed(n int) slog.Attr         { return slog.Int(KeyRemoved, n) }
func Affected(n int) slog.Attr        { return slog.Int(KeyAffected, n) }
func Compiled(n int) slog.Attr        { return slog.Int(KeyCompiled, n) }
func Failed(n int) slog.Attr          { return slog.Int(KeyFailed, n) }
func Op(op string) slog.Attr          { return slog.String(KeyOp, op) }
func Addr(addr string) slog.Attr      { return slog.String(KeyAddr, addr) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
