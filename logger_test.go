package authswitch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLine(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		args []any
		want string
	}{
		{name: "message only", msg: "registered", want: "registered\n"},
		{name: "pairs", msg: "switch", args: []any{"service", "password", "hooks", 2}, want: "switch service=password hooks=2\n"},
		{name: "error value", msg: "sink failed", args: []any{"error", errors.New("down")}, want: "sink failed error=down\n"},
		{name: "dangling key", msg: "odd", args: []any{"lonely"}, want: "odd !BADKEY=lonely\n"},
		{name: "trailing newline", msg: "done\n", want: "done\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, line(tt.msg, tt.args))
		})
	}
}
