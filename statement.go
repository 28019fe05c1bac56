package redistrace

import (
	"fmt"
	"strings"
)

// Command is one Redis command: the command name followed by its arguments.
type Command []interface{}

// Name returns the command name, or "" for an empty command.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return argString(c[0])
}

// Statement renders args space-separated, e.g. "SET a 1".
func Statement(args []interface{}) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(argString(arg))
	}
	return b.String()
}

// BatchStatement renders each command with Statement and joins them with ';'.
func BatchStatement(stack []Command) string {
	var b strings.Builder
	for i, cmd := range stack {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(Statement(cmd))
	}
	return b.String()
}

func argString(arg interface{}) string {
	switch v := arg.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
