// Package filelist resolves command-line style source file lists:
// positional file paths plus +define+NAME[=VALUE] macro injections.
package filelist

import (
	"fmt"
	"strings"
)

// Define is one externally injected macro definition.
type Define struct {
	Name  string
	Value string
}

// FileList is the parsed argument set, orders preserved.
type FileList struct {
	Paths   []string
	Defines []Define
}

// Parse splits args into file paths and defines. A single
// +define+A=1+B+C=x argument carries several definitions. Any other
// +option is rejected.
func Parse(args []string) (FileList, error) {
	var fl FileList
	for _, arg := range args {
		if rest, ok := strings.CutPrefix(arg, "+define+"); ok {
			if rest == "" {
				return FileList{}, fmt.Errorf("empty +define+ argument")
			}
			for _, group := range strings.Split(rest, "+") {
				if group == "" {
					continue
				}
				fl.Defines = append(fl.Defines, splitDefine(group))
			}
			continue
		}
		if strings.HasPrefix(arg, "+") {
			return FileList{}, fmt.Errorf("unknown option %q", arg)
		}
		fl.Paths = append(fl.Paths, arg)
	}
	return fl, nil
}

// splitDefine parses NAME[=VALUE]; a bare NAME defines an empty value.
func splitDefine(s string) Define {
	if name, value, found := strings.Cut(s, "="); found {
		return Define{Name: name, Value: value}
	}
	return Define{Name: s}
}
