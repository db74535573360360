package invoker

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Curl invokes an external executor binary (curl by default) once per call,
// timing the call and reading the status code from its stdout.
type Curl struct {
	bin  string
	args []string
}

// NewCurl builds a Curl invoker around bin with the user's pass-through
// arguments. The arguments are forwarded verbatim apart from the curl
// convenience defaults added by PrepareArgs.
func NewCurl(bin string, args []string) *Curl {
	if strings.TrimSpace(bin) == "" {
		bin = "curl"
	}
	return &Curl{bin: bin, args: PrepareArgs(args)}
}

// PrepareArgs appends the curl options that make stdout carry just the
// status code, unless the caller already controls them: -s to silence the
// progress meter, -o /dev/null to discard the body, and -w %{http_code} to
// print the response code.
func PrepareArgs(args []string) []string {
	prepared := append([]string(nil), args...)
	if !hasOption(args, "-s", "--silent") {
		prepared = append(prepared, "-s")
	}
	if !hasOption(args, "-o", "--output") {
		prepared = append(prepared, "-o", "/dev/null")
	}
	if !hasOption(args, "-w", "--write-out") {
		prepared = append(prepared, "-w", "%{http_code}")
	}
	return prepared
}

func hasOption(args []string, names ...string) bool {
	for _, arg := range args {
		for _, name := range names {
			if arg == name || strings.HasPrefix(arg, name+"=") {
				return true
			}
		}
	}
	return false
}

// Invoke runs the executor once and captures the outcome. The context is
// intentionally not wired into the process: cancellation stops new
// dispatch upstream, while an in-flight invocation always runs to natural
// completion so partially executed requests never corrupt the statistics.
func (c *Curl) Invoke(ctx context.Context) Outcome {
	_ = ctx

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(c.bin, c.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	out := Outcome{Elapsed: elapsed, Stderr: strings.TrimSpace(stderr.String())}
	if err != nil {
		out.Failed = true
		if exitErr, ok := err.(*exec.ExitError); ok {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.ExitCode = -1
			if out.Stderr == "" {
				out.Stderr = err.Error()
			}
		}
		return out
	}

	status, ok := ParseStatus(stdout.String())
	if !ok {
		out.Failed = true
		return out
	}
	out.Status = status
	return out
}

// ParseStatus extracts a status code from executor stdout. A JSON object
// (curl -w '%{json}') yields its http_code field; otherwise the trimmed
// output must be a single token, typically the bare %{http_code} value.
func ParseStatus(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "{") {
		code := gjson.Get(s, "http_code")
		if !code.Exists() {
			return "", false
		}
		return code.String(), true
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", false
	}
	return s, true
}
