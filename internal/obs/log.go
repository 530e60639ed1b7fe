package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerMu sync.Mutex
	logger   *log.Logger
)

// Logger returns the shared line logger. Every structured log in the
// service goes through it so output stays a single JSON stream.
func Logger() *log.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger = log.New(os.Stdout, "", 0)
	}
	return logger
}

// LogRequest emits one JSON line with the given request fields.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
