package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"vpp"
	"vpp/internal/filelist"
	"vpp/internal/stripcomments"
)

const usage = `usage: vpp command args...
available commands:
  strip-comments file [replacement-char]
      Remove // and /* */ comments. Use '-' to read from stdin. With no
      replacement (or a single space) comments and delimiters become
      spaces; with an empty string they are deleted; with any other
      single character the comment contents are replaced by it.
  multiple-compilation-unit file... [+define+NAME[=VALUE]...]
      Preprocess each file as its own compilation unit with branch
      filtering; definitions do not leak between files.
  generate-variants [-limit N] file
      Emit every token stream the conditional directives could produce,
      up to N variants (default 20).
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "strip-comments":
		err = runStripComments(args, os.Stdout)
	case "multiple-compilation-unit":
		err = runMultipleCU(args, os.Stdout, os.Stderr)
	case "generate-variants":
		err = runGenerateVariants(args, os.Stdout, os.Stderr)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runStripComments(args []string, out io.Writer) error {
	fl, err := filelist.Parse(args)
	if err != nil {
		return err
	}
	if len(fl.Paths) == 0 {
		return fmt.Errorf("missing file argument, use '-' for stdin")
	}
	if len(fl.Paths) > 2 {
		return fmt.Errorf("too many arguments")
	}
	replacement := byte(' ')
	if len(fl.Paths) == 2 {
		if replacement, err = parseReplacement(fl.Paths[1]); err != nil {
			return err
		}
	}
	source, err := readSource(fl.Paths[0])
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, stripcomments.Strip(source, replacement))
	return err
}

// parseReplacement interprets the optional replacement argument: empty
// deletes comments, a single character substitutes it.
func parseReplacement(arg string) (byte, error) {
	switch len(arg) {
	case 0:
		return 0, nil
	case 1:
		return arg[0], nil
	}
	return 0, fmt.Errorf("replacement must be a single character")
}

func runMultipleCU(args []string, out, msg io.Writer) error {
	fl, err := filelist.Parse(args)
	if err != nil {
		return err
	}
	if len(fl.Paths) == 0 {
		return fmt.Errorf("missing file argument")
	}
	defines := make([]vpp.Define, len(fl.Defines))
	for i, d := range fl.Defines {
		defines[i] = vpp.Define{Name: d.Name, Value: d.Value}
	}
	for _, path := range fl.Paths {
		fmt.Fprintf(msg, "%s:\n", path)
		source, err := readSource(path)
		if err != nil {
			return err
		}
		// Each file gets its own preprocessor run, so definitions made
		// in one compilation unit are not visible in the next.
		result := vpp.Preprocess(source, vpp.Options{
			FilterBranches: true,
			Defines:        defines,
		})
		for _, text := range result.Tokens {
			fmt.Fprintln(out, text)
		}
		for _, d := range result.Errors {
			fmt.Fprintf(out, "offset %d: %s\n", d.Offset, d.Message)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func runGenerateVariants(args []string, out, msg io.Writer) error {
	fs := flag.NewFlagSet("generate-variants", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum number of variants printed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fl, err := filelist.Parse(fs.Args())
	if err != nil {
		return err
	}
	if len(fl.Paths) == 0 {
		return fmt.Errorf("missing file argument")
	}
	if len(fl.Paths) > 1 {
		return fmt.Errorf("generate-variants only works on one file")
	}
	source, err := readSource(fl.Paths[0])
	if err != nil {
		return err
	}
	variants, err := vpp.Variants(source, *limit)
	if err != nil {
		return err
	}
	for i, variant := range variants {
		fmt.Fprintf(msg, "Variant number %d:\n", i+1)
		for _, text := range variant {
			fmt.Fprintln(out, text)
		}
	}
	return nil
}

func readSource(path string) (string, error) {
	if path == "-" {
		buf, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(buf), nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
