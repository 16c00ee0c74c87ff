package gwlog

import (
	"fmt"

	"github.com/crewjam/rfc5424"
)

// KV builds a structured-data parameter from a name/value pair for
// attaching context to a log line, e.g. lg.Error("write failed",
// gwlog.KV("file", path), gwlog.KVErr(err)).
func KV(name string, value interface{}) (r rfc5424.SDParam) {
	r.Name = name
	switch v := value.(type) {
	case string:
		r.Value = v
	default:
		r.Value = fmt.Sprintf("%v", value)
	}
	return
}

// KVErr is shorthand for KV("error", err).
func KVErr(err error) rfc5424.SDParam {
	return KV("error", err)
}
