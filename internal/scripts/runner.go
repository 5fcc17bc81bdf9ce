// Package scripts runs the optional JavaScript hook a command may declare.
// The hook sees the HTTP response and the variable scope; values written
// through vars.set are persisted to the session alongside set extractions.
package scripts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dop251/goja"

	"github.com/unkn0wn-root/restcmd/internal/errdef"
)

type Response struct {
	Status     string
	StatusCode int
	Body       []byte
}

type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the hook source and returns the variables it set. The input
// variables map is read-only from the hook's point of view; changes come
// back separately so the caller controls the merge.
func (r *Runner) Run(
	ctx context.Context,
	source string,
	resp *Response,
	variables map[string]string,
) (map[string]string, error) {
	script := strings.TrimSpace(source)
	if script == "" {
		return nil, nil
	}

	vm := goja.New()
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if done := ctx.Done(); done != nil {
			go func() {
				<-done
				vm.Interrupt(ctx.Err())
			}()
		}
	}

	if err := bindConsole(vm); err != nil {
		return nil, errdef.Wrap(errdef.CodeScript, err, "bind console api")
	}

	binding := newHookAPI(resp, variables)
	if err := vm.Set("response", binding.responseAPI()); err != nil {
		return nil, errdef.Wrap(errdef.CodeScript, err, "bind response api")
	}
	if err := vm.Set("vars", binding.varsAPI()); err != nil {
		return nil, errdef.Wrap(errdef.CodeScript, err, "bind vars api")
	}

	if _, err := vm.RunString(script); err != nil {
		if ctx != nil {
			var interrupted *goja.InterruptedError
			if errors.As(err, &interrupted) && ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
		return nil, errdef.Wrap(errdef.CodeScript, err, "execute script hook")
	}
	return binding.changes(), nil
}

func bindConsole(vm *goja.Runtime) error {
	console := map[string]func(goja.FunctionCall) goja.Value{
		"log":   func(call goja.FunctionCall) goja.Value { return goja.Undefined() },
		"warn":  func(call goja.FunctionCall) goja.Value { return goja.Undefined() },
		"error": func(call goja.FunctionCall) goja.Value { return goja.Undefined() },
	}
	return vm.Set("console", console)
}

type hookAPI struct {
	response  *Response
	variables map[string]string
	changed   map[string]string
}

func newHookAPI(resp *Response, variables map[string]string) *hookAPI {
	copied := make(map[string]string, len(variables))
	for k, v := range variables {
		copied[k] = v
	}
	return &hookAPI{response: resp, variables: copied, changed: make(map[string]string)}
}

func (api *hookAPI) responseAPI() map[string]interface{} {
	body := ""
	status := ""
	code := 0
	if api.response != nil {
		body = string(api.response.Body)
		status = api.response.Status
		code = api.response.StatusCode
	}

	return map[string]interface{}{
		"status":     status,
		"statusCode": code,
		"body":       body,
		"json": func() interface{} {
			if api.response == nil {
				return nil
			}
			var js interface{}
			if err := json.Unmarshal(api.response.Body, &js); err != nil {
				return nil
			}
			return js
		},
	}
}

func (api *hookAPI) varsAPI() map[string]interface{} {
	return map[string]interface{}{
		"get": func(name string) string {
			return api.variables[name]
		},
		"set": func(name, value string) {
			name = strings.TrimSpace(name)
			if name == "" {
				return
			}
			api.variables[name] = value
			api.changed[name] = value
		},
		"has": func(name string) bool {
			_, ok := api.variables[name]
			return ok
		},
	}
}

func (api *hookAPI) changes() map[string]string {
	if len(api.changed) == 0 {
		return nil
	}
	clone := make(map[string]string, len(api.changed))
	for k, v := range api.changed {
		clone[k] = v
	}
	return clone
}
