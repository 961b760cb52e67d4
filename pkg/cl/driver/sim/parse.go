package sim

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

type kernelArgDecl struct {
	name      string
	typeName  string
	address   uint32
	pointer   bool
	isSampler bool
	constant  bool
	volatile  bool
}

type kernelDecl struct {
	name string
	args []kernelArgDecl
}

var (
	kernelRe  = regexp.MustCompile(`(?s)(?:__kernel|\bkernel)\s+(?:__attribute__\s*\(\(.*?\)\)\s*)?void\s+([A-Za-z_]\w*)\s*\(([^)]*)\)`)
	errorRe   = regexp.MustCompile(`(?m)^\s*#\s*error\b(.*)$`)
	commentRe = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)
	identRe   = regexp.MustCompile(`[A-Za-z_]\w*`)
)

// scalarSizes are the by-value argument sizes the simulator checks.
var scalarSizes = map[string]int{
	"char": 1, "uchar": 1, "bool": 1,
	"short": 2, "ushort": 2, "half": 2,
	"int": 4, "uint": 4, "float": 4,
	"long": 8, "ulong": 8, "double": 8,
	"size_t": 8, "intptr_t": 8, "uintptr_t": 8,
	"int2": 8, "float2": 8, "uint2": 8,
	"int4": 16, "float4": 16, "uint4": 16,
}

// parseKernels extracts kernel declarations from OpenCL C source. It is a
// declaration scanner, not a compiler.
func parseKernels(source string) ([]kernelDecl, error) {
	clean := commentRe.ReplaceAllString(source, "")
	var out []kernelDecl
	seen := map[string]bool{}
	for _, m := range kernelRe.FindAllStringSubmatch(clean, -1) {
		name := m[1]
		if seen[name] {
			return nil, fmt.Errorf("error: redefinition of kernel '%s'", name)
		}
		seen[name] = true
		decl := kernelDecl{name: name}
		params := strings.TrimSpace(m[2])
		if params != "" && params != "void" {
			for _, raw := range strings.Split(params, ",") {
				arg, err := parseArg(raw)
				if err != nil {
					return nil, fmt.Errorf("error: kernel '%s': %w", name, err)
				}
				decl.args = append(decl.args, arg)
			}
		}
		out = append(out, decl)
	}
	return out, nil
}

func parseArg(raw string) (kernelArgDecl, error) {
	arg := kernelArgDecl{address: driver.KernelArgAddressPrivate}
	words := identRe.FindAllString(raw, -1)
	if len(words) < 2 {
		return arg, fmt.Errorf("malformed parameter %q", strings.TrimSpace(raw))
	}
	arg.pointer = strings.Contains(raw, "*")
	arg.name = words[len(words)-1]

	var typ []string
	for _, w := range words[:len(words)-1] {
		switch w {
		case "__global", "global":
			arg.address = driver.KernelArgAddressGlobal
		case "__local", "local":
			arg.address = driver.KernelArgAddressLocal
		case "__constant", "constant":
			arg.address = driver.KernelArgAddressConstant
		case "__private", "private":
			arg.address = driver.KernelArgAddressPrivate
		case "const":
			arg.constant = true
		case "volatile":
			arg.volatile = true
		case "restrict", "__restrict", "__read_only", "read_only", "__write_only", "write_only":
		default:
			typ = append(typ, w)
		}
	}
	arg.typeName = strings.Join(typ, " ")
	if arg.pointer {
		arg.typeName += "*"
	}
	arg.isSampler = arg.typeName == "sampler_t"
	return arg, nil
}

// buildDiagnostics returns the compiler log for source and whether it
// contains errors. "#error" directives are the simulator's way to fail.
func buildDiagnostics(source string) (string, bool) {
	var log strings.Builder
	failed := false
	for _, m := range errorRe.FindAllStringSubmatchIndex(source, -1) {
		line := strings.Count(source[:m[0]], "\n") + 1
		msg := strings.TrimSpace(source[m[2]:m[3]])
		fmt.Fprintf(&log, "<source>:%d:2: error: %s\n", line, msg)
		failed = true
	}
	return log.String(), failed
}

// validOptions reports whether every token of a build option string looks
// like a compiler flag, returning the first offending token otherwise.
func validOptions(options string) (string, bool) {
	fields := strings.Fields(options)
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if !strings.HasPrefix(tok, "-") {
			return tok, false
		}
		// -D NAME and -I DIR take their value as the next token.
		if (tok == "-D" || tok == "-I") && i+1 < len(fields) {
			i++
		}
	}
	return "", true
}
