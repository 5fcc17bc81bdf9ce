package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/restcmd/internal/cmdspec"
)

// registerManifest binds the grouped command tree onto the cobra root. The
// grammar parser stays independent of cobra; this is the only place the two
// meet.
func (a *app) registerManifest(root *cobra.Command) {
	parents := make([]string, 0, len(a.tree))
	for name := range a.tree {
		parents = append(parents, name)
	}
	sort.Strings(parents)

	for _, name := range parents {
		node := a.tree[name]
		parent := a.commandFor(node, node.Spec.Parent)

		subs := make([]string, 0, len(node.Subs))
		for sub := range node.Subs {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		for _, sub := range subs {
			a.mountSub(parent, node.Subs[sub])
		}
		root.AddCommand(parent)
	}
}

// mountSub nests one cobra command per subcommand word, so "get remote list"
// dispatches as restcmd get remote list.
func (a *app) mountSub(parent *cobra.Command, node *cmdspec.Command) {
	words := strings.Fields(node.Spec.Sub)
	current := parent
	for i, word := range words {
		last := i == len(words)-1
		if !last {
			current = findOrAddGroup(current, word)
			continue
		}
		current.AddCommand(a.commandFor(node, word))
	}
}

func findOrAddGroup(parent *cobra.Command, name string) *cobra.Command {
	for _, existing := range parent.Commands() {
		if existing.Name() == name {
			return existing
		}
	}
	group := &cobra.Command{Use: name}
	parent.AddCommand(group)
	return group
}

func (a *app) commandFor(node *cmdspec.Command, name string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   useLine(name, node.Spec),
		Short: node.Def.Description,
	}
	if !node.Runnable {
		return cmd
	}

	spec := node.Spec
	def := node.Def
	cmd.Args = cobra.RangeArgs(spec.MinArgs(), spec.MaxArgs())
	cmd.RunE = func(cmd *cobra.Command, argv []string) error {
		bound, err := spec.BindArgs(argv)
		if err != nil {
			return err
		}
		return a.runner.Run(cmd.Context(), spec, def, bound)
	}
	return cmd
}

func useLine(name string, spec cmdspec.Spec) string {
	parts := []string{name}
	for _, arg := range spec.Required {
		parts = append(parts, "<"+arg+">")
	}
	for _, arg := range spec.Optional {
		parts = append(parts, "["+arg+"]")
	}
	return strings.Join(parts, " ")
}
