package logging

import (
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component names the subsystem emitting the entry
func Component(name string) Field {
	return String("component", name)
}

// Instance names the solved problem instance a record belongs to
func Instance(name string) Field {
	return String("instance", name)
}

// Line is a 1-based line number in a solver log or trajectory file
func Line(n int) Field {
	return Int("line", n)
}

// Token is the offending token of a malformed record
func Token(tok string) Field {
	return String("token", tok)
}

func NodeID(id int) Field {
	return Int("node_id", id)
}

func PolicyID(id int) Field {
	return Int("policy_id", id)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
