package usecase

import (
	"fmt"
	"time"
)

const archiveExt = ".tar.gz"

// DumpDirName is <source>_<year>_<month>_<day>_<epochMillis>. Month and day
// are not zero-padded.
func DumpDirName(source string, t time.Time) string {
	return fmt.Sprintf("%s_%d_%d_%d_%d", source, t.Year(), int(t.Month()), t.Day(), t.UnixMilli())
}

func ArchiveName(source string, t time.Time) string {
	return DumpDirName(source, t) + archiveExt
}
