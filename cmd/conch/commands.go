package main

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/Jajasek/conch/internal/console"
	"github.com/Jajasek/conch/internal/dispatch"
	"github.com/Jajasek/conch/internal/launch"
	"github.com/Jajasek/conch/internal/syntax"
)

// store is the in-memory key/value state of the demo commands.
type store struct {
	mu   sync.Mutex
	vals map[string]string
}

func (s *store) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vals == nil {
		s.vals = make(map[string]string)
	}
	s.vals[key] = value
}

func (s *store) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[key]
	return v, ok
}

func (s *store) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.vals))
	for k := range s.vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// demoCommands builds the built-in command set of the binary.
func demoCommands(launcher *launch.Launcher) []console.Registration {
	st := &store{}

	return []console.Registration{
		{
			Syntax:      "greet once|n-times [<n>]",
			Description: "print a greeting, once or n times",
			Handler:     greetHandler,
		},
		{
			Syntax:      "set <key> <value>",
			Description: "store a value under a key",
			Handler: func(ctx *dispatch.Context, args []syntax.Arg) error {
				st.set(args[0].Value, args[1].Value)
				return nil
			},
		},
		{
			Syntax:      "get <key>",
			Description: "print the value stored under a key",
			Handler: func(ctx *dispatch.Context, args []syntax.Arg) error {
				v, ok := st.get(args[0].Value)
				if !ok {
					return dispatch.NewInvalidArgValue(args[0], "no such key")
				}
				fmt.Fprintln(ctx.Out, v)
				return nil
			},
		},
		{
			Syntax:      "launch <script> [<arg>]",
			Description: "run a script in the background; its output interleaves with the console",
			Handler: func(ctx *dispatch.Context, args []syntax.Arg) error {
				script := args[0]
				var extra []string
				if !args[1].Empty() {
					extra = append(extra, args[1].Value)
				}
				job, err := launcher.Launch(ctx.Ctx, script.Value, extra...)
				if err != nil {
					return dispatch.NewInvalidArgValue(script, err.Error())
				}
				fmt.Fprintf(ctx.Out, "started '%s' (job %s)\n", job.Name, job.ID)
				return nil
			},
		},
		{
			Syntax:      "j|jobs",
			Description: "list running background scripts",
			Handler: func(ctx *dispatch.Context, args []syntax.Arg) error {
				jobs := launcher.Jobs()
				if len(jobs) == 0 {
					fmt.Fprintln(ctx.Out, "no running jobs")
					return nil
				}
				for _, j := range jobs {
					fmt.Fprintf(ctx.Out, "%s  pid %d  %s\n", j.ID, j.PID(), j.Name)
				}
				return nil
			},
		},
		{
			Syntax:      "",
			Description: "the stored keys are listed",
			Handler: func(ctx *dispatch.Context, args []syntax.Arg) error {
				keys := st.keys()
				if len(keys) == 0 {
					fmt.Fprintln(ctx.Out, "store is empty")
					return nil
				}
				for _, k := range keys {
					v, _ := st.get(k)
					fmt.Fprintf(ctx.Out, "%s = %s\n", k, v)
				}
				return nil
			},
		},
	}
}

// greetHandler prints one greeting per requested repetition. The count is
// only meaningful with n-times; a bare count or a missing one is rejected
// so the diagnostic ranks against other candidates.
func greetHandler(ctx *dispatch.Context, args []syntax.Arg) error {
	mode, count := args[0], args[1]
	switch {
	case mode.Value == "once" && !count.Empty():
		return dispatch.NewInvalidSyntax(count, "count is only valid with n-times")
	case mode.Value == "once":
		fmt.Fprintln(ctx.Out, "Hello!")
		return nil
	case count.Empty():
		return dispatch.NewInvalidSyntax(mode, "n-times requires a count")
	}
	n, err := strconv.Atoi(count.Value)
	if err != nil || n < 1 {
		return dispatch.NewInvalidArgValue(count, "must be a positive integer")
	}
	for i := 0; i < n; i++ {
		fmt.Fprintln(ctx.Out, "Hello!")
	}
	return nil
}
