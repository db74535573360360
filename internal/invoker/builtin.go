package invoker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Builtin performs the request in-process instead of shelling out to curl.
// It understands the curl option subset that the pass-through surface
// commonly carries: -X/--request, -d/--data, -H/--header, -A/--user-agent
// and a positional URL.
type Builtin struct {
	client *http.Client
	method string
	target string
	body   string
	header http.Header
}

// NewBuiltin parses the pass-through arguments into a request template.
// Unsupported options are a configuration error, reported before any
// invocation is launched.
func NewBuiltin(args []string) (*Builtin, error) {
	b := &Builtin{
		client: newHTTPClient(30 * time.Second),
		method: http.MethodGet,
		header: http.Header{},
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-X", "--request":
			val, err := optionValue(args, &i)
			if err != nil {
				return nil, err
			}
			b.method = strings.ToUpper(val)
		case "-d", "--data":
			val, err := optionValue(args, &i)
			if err != nil {
				return nil, err
			}
			b.body = val
		case "-H", "--header":
			val, err := optionValue(args, &i)
			if err != nil {
				return nil, err
			}
			key, value, ok := strings.Cut(val, ":")
			if !ok {
				return nil, fmt.Errorf("invalid header %q", val)
			}
			b.header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
		case "-A", "--user-agent":
			val, err := optionValue(args, &i)
			if err != nil {
				return nil, err
			}
			b.header.Set("User-Agent", val)
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("built-in client does not support option %q", arg)
			}
			if b.target != "" {
				return nil, fmt.Errorf("multiple URLs given (%q and %q)", b.target, arg)
			}
			b.target = arg
		}
	}

	if b.target == "" {
		return nil, fmt.Errorf("built-in client requires a URL")
	}
	if !strings.Contains(b.target, "://") {
		b.target = "http://" + b.target
	}
	if b.body != "" && b.method == http.MethodGet {
		b.method = http.MethodPost
	}
	return b, nil
}

func optionValue(args []string, i *int) (string, error) {
	if *i+1 >= len(args) {
		return "", fmt.Errorf("option %q requires a value", args[*i])
	}
	*i++
	return args[*i], nil
}

// Invoke performs one request. As with the curl invoker the context does
// not cancel the request itself; an in-flight invocation always completes.
func (b *Builtin) Invoke(ctx context.Context) Outcome {
	_ = ctx

	start := time.Now()
	req, err := b.newRequest()
	if err != nil {
		return Outcome{Elapsed: time.Since(start), Failed: true, ExitCode: -1, Stderr: err.Error()}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return Outcome{Elapsed: time.Since(start), Failed: true, ExitCode: -1, Stderr: err.Error()}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return Outcome{
		Elapsed: time.Since(start),
		Status:  strconv.Itoa(resp.StatusCode),
	}
}

func (b *Builtin) newRequest() (*http.Request, error) {
	var body io.Reader
	if b.body != "" {
		body = strings.NewReader(b.body)
	}
	req, err := http.NewRequest(b.method, b.target, body)
	if err != nil {
		return nil, err
	}
	for key, values := range b.header {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}
	return req, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
