package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/zparse/internal/ast"
	"github.com/dshills/zparse/internal/document"
	"github.com/dshills/zparse/internal/rules"
	"github.com/dshills/zparse/internal/watch"
)

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			return a.printTree(doc)
		},
	}
}

func (a *app) printTree(doc *document.Document) error {
	root, err := doc.Root()
	if err != nil {
		return err
	}
	if err := ast.Dump(a.out, root); err != nil {
		return err
	}
	for _, w := range doc.Warnings() {
		fmt.Fprintf(a.errOut, "warning: %v\n", w)
	}
	return nil
}

func (a *app) renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render FILE",
		Short: "Reconstruct the source text from the tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.out, doc.Render())
			return err
		},
	}
}

func (a *app) wordCmd() *cobra.Command {
	var connect bool
	cmd := &cobra.Command{
		Use:   "word FILE OFFSET",
		Short: "Print the word at a byte offset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseInt("offset", args[1])
			if err != nil {
				return err
			}
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			start, end, err := doc.GetWordBounds(pos, connect)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d\t%d\t%s\n", start, end, doc.Text()[start:end])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&connect, "connect", "c", false, "join preceding tokens that touch the word")
	return cmd
}

func (a *app) lineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "line FILE N",
		Short: "List the tokens that start on a 0-based line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("line", args[1])
			if err != nil {
				return err
			}
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			nodes, _ := doc.GetNodesAt(n)
			for _, node := range nodes {
				if l, ok := node.(*ast.Leaf); ok {
					fmt.Fprintf(a.out, "%s\t%q\n", l.Tag(), l.Text())
				}
			}
			return nil
		},
	}
}

func (a *app) pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path FILE OFFSET",
		Short: "Print the tree path of a byte offset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseInt("offset", args[1])
			if err != nil {
				return err
			}
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			p, err := doc.OffsetToPath(pos)
			if err != nil {
				return err
			}
			if len(p) == 0 {
				fmt.Fprintln(a.out, p)
				return nil
			}
			node, err := doc.Lookup(p[:len(p)-1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s\t%v\n", p, node)
			return nil
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-parse a file whenever it changes and print its tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0])
			if err != nil {
				return err
			}
			if err := a.printTree(doc); err != nil {
				return err
			}

			w, err := watch.New(args[0],
				watch.WithDebounce(a.cfg.Watch.Debounce),
				watch.WithLogger(a.log),
			)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Info().Str("path", w.Path()).Msg("watching")
			return w.Run(ctx, func(data []byte) error {
				if err := doc.Reload(string(data)); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "--- revision %s\n", doc.Revision())
				return a.printTree(doc)
			})
		},
	}
}

func (a *app) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the built-in language presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range rules.Presets() {
				rs, err := rules.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s\t%s\n", name, strings.Join(rs.Extensions(), " "))
			}
			return nil
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return n, nil
}
