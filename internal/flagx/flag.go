// Package flagx contains helpers for parsing a subset of command-line flags
// so that several independent parsers can share os.Args.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the args that belong to the named flags, in order.
// Names may be written with one or two leading dashes; "-d" also matches
// "--d". A value given as a separate argument travels with its flag unless
// it starts with a dash. Parsing stops at a bare "--".
//
//	FilterArgs([]string{"-d", "file:x.db", "--redis=redis://r", "-x"}, []string{"-d", "-redis"})
//	// []string{"-d", "file:x.db", "--redis=redis://r"}
func FilterArgs(args []string, names []string) []string {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[flagName(n)] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if !allowed[flagName(name)] {
			continue
		}
		out = append(out, arg)

		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

func flagName(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(s, "-"), "-")
}

// ConfigPath extracts the JSON config file path given via -c or -config.
// It returns an empty string when neither flag is present.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
