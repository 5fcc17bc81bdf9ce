// Package cmdspec parses the manifest command-name grammar
// ("parent sub <mandatory> [optional]") into structured specs, kept separate
// from CLI registration so the grammar is testable on its own.
package cmdspec

import (
	"regexp"
	"strings"

	"github.com/unkn0wn-root/restcmd/internal/errdef"
	"github.com/unkn0wn-root/restcmd/internal/manifest"
)

type Spec struct {
	// Name is the manifest key the spec was parsed from.
	Name     string
	Parent   string
	Sub      string
	Required []string
	Optional []string
}

var (
	wordPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	argPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func Parse(name string) (Spec, error) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return Spec{}, errdef.New(errdef.CodeParse, "empty command name")
	}

	spec := Spec{Name: name}
	if !wordPattern.MatchString(tokens[0]) {
		return Spec{}, errdef.New(errdef.CodeParse, "command %q: parent %q is not a plain word", name, tokens[0])
	}
	spec.Parent = tokens[0]

	var subWords []string
	seen := make(map[string]struct{})
	argsStarted := false
	for _, token := range tokens[1:] {
		argName, mandatory, isArg, err := parseArgToken(name, token)
		if err != nil {
			return Spec{}, err
		}

		switch {
		case isArg:
			argsStarted = true
			if _, dup := seen[argName]; dup {
				return Spec{}, errdef.New(errdef.CodeParse, "command %q: duplicate argument %q", name, argName)
			}
			seen[argName] = struct{}{}
			if mandatory {
				if len(spec.Optional) > 0 {
					return Spec{}, errdef.New(
						errdef.CodeParse,
						"command %q: mandatory argument <%s> after optional arguments",
						name, argName,
					)
				}
				spec.Required = append(spec.Required, argName)
			} else {
				spec.Optional = append(spec.Optional, argName)
			}
		case argsStarted:
			return Spec{}, errdef.New(errdef.CodeParse, "command %q: word %q after arguments", name, token)
		default:
			if !wordPattern.MatchString(token) {
				return Spec{}, errdef.New(errdef.CodeParse, "command %q: malformed token %q", name, token)
			}
			subWords = append(subWords, token)
		}
	}

	spec.Sub = strings.Join(subWords, " ")
	return spec, nil
}

func parseArgToken(command, token string) (name string, mandatory, isArg bool, err error) {
	switch {
	case strings.HasPrefix(token, "<") && strings.HasSuffix(token, ">"):
		mandatory = true
	case strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]"):
	default:
		if strings.ContainsAny(token, "<>[]") {
			return "", false, false, errdef.New(
				errdef.CodeParse,
				"command %q: malformed argument token %q",
				command, token,
			)
		}
		return "", false, false, nil
	}

	name = token[1 : len(token)-1]
	if !argPattern.MatchString(name) {
		return "", false, false, errdef.New(
			errdef.CodeParse,
			"command %q: invalid argument name %q",
			command, name,
		)
	}
	return name, mandatory, true, nil
}

// MinArgs and MaxArgs bound the positional argument count for dispatch.
func (s Spec) MinArgs() int { return len(s.Required) }
func (s Spec) MaxArgs() int { return len(s.Required) + len(s.Optional) }

// BindArgs maps positional values onto argument names in declaration order,
// mandatory first. Omitted optionals are simply absent from the result.
func (s Spec) BindArgs(argv []string) (map[string]string, error) {
	if len(argv) < s.MinArgs() {
		return nil, errdef.New(
			errdef.CodeParse,
			"command %q: missing argument <%s>",
			s.Name, s.Required[len(argv)],
		)
	}
	if len(argv) > s.MaxArgs() {
		return nil, errdef.New(errdef.CodeParse, "command %q: too many arguments", s.Name)
	}

	bound := make(map[string]string, len(argv))
	names := append(append([]string(nil), s.Required...), s.Optional...)
	for i, value := range argv {
		bound[names[i]] = value
	}
	return bound, nil
}

// Command is one node of the grouped tree: a parent command and its
// registered subcommands.
type Command struct {
	Spec Spec
	Def  manifest.Definition
	// Runnable is false for parents that only exist to hold subcommands.
	Runnable bool
	Subs     map[string]*Command
}

// Group merges manifest definitions sharing a parent token under one node.
// Names are processed in sorted order so merging is deterministic; the first
// parent-level definition wins and later ones are rejected.
func Group(doc *manifest.Document) (map[string]*Command, error) {
	tree := make(map[string]*Command)
	for _, name := range doc.CommandNames() {
		spec, err := Parse(name)
		if err != nil {
			return nil, err
		}

		node, ok := tree[spec.Parent]
		if !ok {
			node = &Command{
				Spec: Spec{Name: spec.Parent, Parent: spec.Parent},
				Subs: make(map[string]*Command),
			}
			tree[spec.Parent] = node
		}

		def := doc.Commands[name]
		if spec.Sub == "" {
			if node.Runnable {
				return nil, errdef.New(
					errdef.CodeConfig,
					"command %q: parent %q is already defined",
					name, spec.Parent,
				)
			}
			node.Spec = spec
			node.Def = def
			node.Runnable = true
			continue
		}

		if _, dup := node.Subs[spec.Sub]; dup {
			return nil, errdef.New(
				errdef.CodeConfig,
				"command %q: subcommand %q is already defined under %q",
				name, spec.Sub, spec.Parent,
			)
		}
		node.Subs[spec.Sub] = &Command{Spec: spec, Def: def, Runnable: true}
	}
	return tree, nil
}
