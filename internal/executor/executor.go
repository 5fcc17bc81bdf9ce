// Package executor orchestrates one command invocation: build the variable
// scope, resolve and issue the HTTP call or shell execution, render the
// response, and persist captured state.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/unkn0wn-root/restcmd/internal/cmdspec"
	"github.com/unkn0wn-root/restcmd/internal/errdef"
	"github.com/unkn0wn-root/restcmd/internal/extract"
	"github.com/unkn0wn-root/restcmd/internal/history"
	"github.com/unkn0wn-root/restcmd/internal/manifest"
	"github.com/unkn0wn-root/restcmd/internal/scripts"
	"github.com/unkn0wn-root/restcmd/internal/session"
	"github.com/unkn0wn-root/restcmd/internal/vars"
)

type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
	Verbose            bool
}

type Runner struct {
	doc         *manifest.Document
	store       session.Store
	hist        *history.Store
	hooks       *scripts.Runner
	opts        Options
	overlay     map[string]string
	httpFactory func(Options) (*http.Client, error)
	runShell    ShellFunc
	stdout      io.Writer
	stderr      io.Writer
}

// ShellFunc runs a resolved command line and returns its output streams.
type ShellFunc func(ctx context.Context, command string) (stdout, stderr string, err error)

func New(doc *manifest.Document, store session.Store, opts Options) *Runner {
	r := &Runner{
		doc:    doc,
		store:  store,
		hooks:  scripts.NewRunner(),
		opts:   opts,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	r.httpFactory = buildHTTPClient
	r.runShell = runShellCommand
	return r
}

// SetHTTPFactory overrides how http.Client instances are created.
// Passing nil restores the default factory.
func (r *Runner) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	if factory == nil {
		factory = buildHTTPClient
	}
	r.httpFactory = factory
}

// SetShell overrides local command execution. Passing nil restores the default.
func (r *Runner) SetShell(fn ShellFunc) {
	if fn == nil {
		fn = runShellCommand
	}
	r.runShell = fn
}

// SetHistory attaches an invocation log. History failures never fail a run.
func (r *Runner) SetHistory(store *history.Store) {
	r.hist = store
}

// SetOverlay layers extra variables (an --env-file overlay) between the
// manifest statics and the session.
func (r *Runner) SetOverlay(values map[string]string) {
	r.overlay = values
}

// SetOutput redirects the display and report streams.
func (r *Runner) SetOutput(stdout, stderr io.Writer) {
	if stdout != nil {
		r.stdout = stdout
	}
	if stderr != nil {
		r.stderr = stderr
	}
}

// Run executes one command invocation. Per-invocation failures come back as
// errors for the CLI layer to report; the process itself never crashes on
// them.
func (r *Runner) Run(
	ctx context.Context,
	spec cmdspec.Spec,
	def manifest.Definition,
	args map[string]string,
) error {
	scope, err := r.buildScope(args)
	if err != nil {
		return err
	}

	var runErr error
	if def.Endpoint != "" {
		runErr = r.request(ctx, spec, def, scope)
	} else if def.Response != "" {
		// No endpoint means no response body to extract from; the template
		// resolves against the scope alone.
		fmt.Fprintln(r.stdout, scope.Expand(def.Response))
	}

	if def.Execute != "" {
		if err := r.execute(ctx, spec, def, scope); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// scope layering, lowest precedence first: manifest statics, env-file
// overlay, persisted session, invocation arguments.
func (r *Runner) buildScope(args map[string]string) (*vars.Scope, error) {
	stored, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	providers := []vars.Provider{vars.NewMapProvider("variables", r.doc.Variables)}
	if len(r.overlay) > 0 {
		providers = append(providers, vars.NewMapProvider("env-file", r.overlay))
	}
	providers = append(providers,
		vars.NewMapProvider("session", stored),
		vars.NewMapProvider("arguments", args),
	)
	return vars.NewScope(providers...), nil
}

func (r *Runner) request(
	ctx context.Context,
	spec cmdspec.Spec,
	def manifest.Definition,
	scope *vars.Scope,
) error {
	method, rawURL, err := resolveEndpoint(def.Endpoint, scope)
	if err != nil {
		return err
	}

	entry := history.NewEntry(spec.Name)
	entry.Method = method
	entry.URL = rawURL
	defer r.record(&entry)

	body, err := resolveBody(def.Body, scope)
	if err != nil {
		entry.Error = err.Error()
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return errdef.Wrap(errdef.CodeHTTP, err, "build request")
	}
	for name, template := range r.doc.Headers {
		httpReq.Header.Set(name, scope.Expand(template))
	}
	if len(body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if r.opts.Verbose {
		fmt.Fprintf(r.stderr, "> %s %s\n", method, rawURL)
	}

	client, err := r.httpFactory(r.opts)
	if err != nil {
		return err
	}

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		entry.Duration = time.Since(start)
		wrapped := errdef.Wrap(errdef.CodeHTTP, err, "perform request")
		entry.Error = wrapped.Error()
		return wrapped
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		wrapped := errdef.Wrap(errdef.CodeHTTP, err, "read response body")
		entry.Error = wrapped.Error()
		return wrapped
	}

	entry.Duration = time.Since(start)
	entry.Status = httpResp.Status
	entry.StatusCode = httpResp.StatusCode

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		failure := requestFailure(httpResp.Status, respBody)
		entry.Error = failure.Error()
		return failure
	}

	root := decodeResponse(respBody)

	if def.Response != "" {
		// Extraction first, then the generic pass: a variable named to
		// collide with a data path must not shadow it.
		rendered := scope.Expand(extract.Apply(def.Response, root))
		fmt.Fprintln(r.stdout, rendered)
	}

	changed, err := r.runHook(ctx, def, httpResp, respBody, scope)
	if err != nil {
		// Script failures are reported but never undo the request itself.
		fmt.Fprintf(r.stderr, "script hook: %s\n", err)
	}

	if len(def.Set) > 0 || changed {
		r.applySet(def.Set, root, scope)
		if err := r.store.Save(scope.Flatten()); err != nil {
			entry.Error = err.Error()
			return err
		}
	}
	return nil
}

func (r *Runner) runHook(
	ctx context.Context,
	def manifest.Definition,
	httpResp *http.Response,
	respBody []byte,
	scope *vars.Scope,
) (bool, error) {
	if def.Script == "" {
		return false, nil
	}

	changes, err := r.hooks.Run(ctx, def.Script, &scripts.Response{
		Status:     httpResp.Status,
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
	}, scope.Flatten())
	if err != nil {
		return false, err
	}

	for name, value := range changes {
		scope.Set(name, value)
	}
	return len(changes) > 0, nil
}

// applySet captures raw extraction values into the scope. Entries resolve in
// sorted name order so one run's writes are deterministic; a missing path
// contributes an empty string rather than the display marker.
func (r *Runner) applySet(set map[string]string, root interface{}, scope *vars.Scope) {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := extract.ApplyRaw(set[name], root)
		scope.Set(name, scope.Expand(raw))
	}
}

func (r *Runner) execute(
	ctx context.Context,
	spec cmdspec.Spec,
	def manifest.Definition,
	scope *vars.Scope,
) error {
	command := scope.Expand(def.Execute)
	if r.opts.Verbose {
		fmt.Fprintf(r.stderr, "$ %s\n", command)
	}

	entry := history.NewEntry(spec.Name)
	entry.Method = "EXEC"
	start := time.Now()

	stdout, stderr, err := r.runShell(ctx, command)
	entry.Duration = time.Since(start)
	if err != nil {
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = err.Error()
		}
		wrapped := errdef.New(errdef.CodeExec, "execute %q: %s", command, detail)
		entry.Error = wrapped.Error()
		r.record(&entry)
		return wrapped
	}

	r.record(&entry)
	if trimmed := strings.TrimSpace(stdout); trimmed != "" {
		fmt.Fprintln(r.stdout, trimmed)
	}
	return nil
}

func (r *Runner) record(entry *history.Entry) {
	if r.hist == nil {
		return
	}
	if err := r.hist.Append(*entry); err != nil && r.opts.Verbose {
		fmt.Fprintf(r.stderr, "history: %s\n", err)
	}
}

// resolveEndpoint expands the endpoint template and splits it into method
// and URL on the first space.
func resolveEndpoint(template string, scope *vars.Scope) (method, rawURL string, err error) {
	resolved := strings.TrimSpace(scope.Expand(template))
	method, rawURL, found := strings.Cut(resolved, " ")
	if !found || method == "" || strings.TrimSpace(rawURL) == "" {
		return "", "", errdef.New(errdef.CodeConfig, "endpoint %q is not of the form METHOD URL", resolved)
	}
	return strings.ToUpper(method), strings.TrimSpace(rawURL), nil
}

// resolveBody serializes the template mapping to JSON text, substitutes
// placeholders, then parses back to prove the payload survived substitution.
func resolveBody(body map[string]interface{}, scope *vars.Scope) ([]byte, error) {
	if len(body) == 0 {
		return nil, nil
	}

	serialized, err := json.Marshal(body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "encode body template")
	}

	expanded := scope.Expand(string(serialized))
	decoder := json.NewDecoder(strings.NewReader(expanded))
	decoder.UseNumber()
	var payload interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "body is not valid JSON after substitution")
	}
	return []byte(expanded), nil
}

// decodeResponse parses the body as JSON with UseNumber so numeric values
// round-trip as written. Non-JSON bodies yield a nil root: extractions miss,
// they do not error.
func decodeResponse(body []byte) interface{} {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var root interface{}
	if err := decoder.Decode(&root); err != nil {
		return nil
	}
	return root
}

func requestFailure(status string, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		return errdef.New(errdef.CodeHTTP, "request failed: %s", status)
	}
	const limit = 512
	if len(snippet) > limit {
		snippet = snippet[:limit] + "..."
	}
	return errdef.New(errdef.CodeHTTP, "request failed: %s: %s", status, snippet)
}
