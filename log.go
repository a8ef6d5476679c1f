package rangedl

import (
	"fmt"
	"os"
)

// debugEnv is the env var that gates the default logger's output.
const debugEnv = "RANGEDL_DEBUG"

// stderrLogger is the default Logger used when Config.Logger is nil. It only
// prints when RANGEDL_DEBUG is set, so library consumers get silence by
// default.
type stderrLogger struct{}

func (stderrLogger) Debugf(format string, args ...any) {
	if os.Getenv(debugEnv) == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "[rangedl] "+format+"\n", args...)
}

func resolveLogger(l Logger) Logger {
	if l != nil {
		return l
	}
	return stderrLogger{}
}
