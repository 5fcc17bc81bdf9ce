package manifest

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/restcmd/internal/errdef"
)

// Definition is one named command from the manifest. All fields are optional;
// Validate rejects combinations that could never execute.
type Definition struct {
	Description string                 `yaml:"description"`
	Endpoint    string                 `yaml:"endpoint"`
	Body        map[string]interface{} `yaml:"body"`
	Response    string                 `yaml:"response"`
	Set         map[string]string      `yaml:"set"`
	Execute     string                 `yaml:"execute"`
	Script      string                 `yaml:"script"`
}

type Document struct {
	Variables map[string]string     `yaml:"variables"`
	Headers   map[string]string     `yaml:"headers"`
	Commands  map[string]Definition `yaml:"commands"`
}

func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read manifest %s", path)
	}
	return Parse(data)
}

func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errdef.Wrap(errdef.CodeConfig, err, "parse manifest")
	}

	if doc.Commands == nil {
		return nil, errdef.New(errdef.CodeConfig, "manifest has no commands section")
	}

	for name, def := range doc.Commands {
		if err := validateDefinition(name, def); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

// Body, set and script all consume an HTTP response, so they are config
// errors without an endpoint to produce one.
func validateDefinition(name string, def Definition) error {
	if def.Endpoint == "" {
		if len(def.Body) > 0 {
			return errdef.New(errdef.CodeConfig, "command %q declares a body without an endpoint", name)
		}
		if len(def.Set) > 0 {
			return errdef.New(errdef.CodeConfig, "command %q declares set extractions without an endpoint", name)
		}
		if def.Script != "" {
			return errdef.New(errdef.CodeConfig, "command %q declares a script without an endpoint", name)
		}
	}
	if def.Endpoint == "" && def.Response == "" && def.Execute == "" {
		return errdef.New(errdef.CodeConfig, "command %q has nothing to run", name)
	}
	return nil
}

// CommandNames returns the manifest command names in stable order.
func (d *Document) CommandNames() []string {
	names := make([]string, 0, len(d.Commands))
	for name := range d.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
