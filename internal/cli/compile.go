package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/Protoscribe/internal/draft"
	"github.com/turtacn/Protoscribe/internal/monitor"
	"github.com/turtacn/Protoscribe/pkg/digest"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/logger"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

// compileFlags override the compiler section of the config.
type compileFlags struct {
	nesting       string
	strictFormats bool
}

func (f *compileFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.nesting, "nesting", "", "structure layout: flat or recursive (default from config)")
	cmd.Flags().BoolVar(&f.strictFormats, "strict-formats", false, "drop empty dataFormats tokens")
}

func (f *compileFlags) options(g *globalOptions) ([]protocol.CompileOption, error) {
	opts := g.cfg.CompileOptions()
	if f.nesting != "" {
		mode, ok := protocol.ParseNestingMode(f.nesting)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeConfigInvalid, "CompileFlags",
				fmt.Sprintf("--nesting %q must be flat or recursive", f.nesting), nil)
		}
		opts = append(opts, protocol.WithNesting(mode))
	}
	if f.strictFormats {
		opts = append(opts, protocol.WithStrictFormats())
	}
	return opts, nil
}

func newCompileCmd(g *globalOptions) *cobra.Command {
	var (
		flags   compileFlags
		output  string
		showCID bool
	)
	cmd := &cobra.Command{
		Use:   "compile <draft>",
		Short: "Compile a YAML, TOML or JSON draft into a canonical descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := draft.ReadFile(args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options(g)
			if err != nil {
				return err
			}
			out, err := render(protocol.Compile(p, opts...))
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, out); err != nil {
				return err
			}
			if showCID {
				fmt.Fprintln(cmd.ErrOrStderr(), digest.String(out))
			}
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the descriptor to this file instead of stdout")
	cmd.Flags().BoolVar(&showCID, "cid", false, "print the descriptor CID to stderr")
	return cmd
}

func newFmtCmd(g *globalOptions) *cobra.Command {
	var (
		flags  compileFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "fmt <descriptor>",
		Short: "Rewrite an existing descriptor in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readDocument(args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options(g)
			if err != nil {
				return err
			}
			out, err := render(protocol.Compile(p, opts...))
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the descriptor to this file instead of stdout")
	return cmd
}

func newCIDCmd(g *globalOptions) *cobra.Command {
	var (
		flags    compileFlags
		document bool
	)
	cmd := &cobra.Command{
		Use:   "cid <file>",
		Short: "Print the content identifier of a draft's compiled descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   protocol.Protocol
				err error
			)
			if document {
				p, err = readDocument(args[0])
			} else {
				p, err = draft.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			opts, err := flags.options(g)
			if err != nil {
				return err
			}
			out, err := render(protocol.Compile(p, opts...))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest.String(out))
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&document, "document", false, "treat the file as a compiled descriptor rather than a draft")
	return cmd
}

func readDocument(path string) (protocol.Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return protocol.Protocol{}, perrors.New(perrors.ErrCodeDraftRead, "ReadDocument", "cannot read "+path, err)
	}
	return protocol.ParseDocument(data)
}

func render(doc *protocol.Document) ([]byte, error) {
	out, err := doc.Render()
	if err != nil {
		return nil, err
	}
	monitor.ObserveCompile(doc)
	stats := doc.Stats()
	logger.Log.Debug("Descriptor compiled",
		"nesting", doc.Nesting,
		"types", stats.TypesIncluded, "types_omitted", stats.TypesOmitted,
		"structures", stats.StructuresIncluded, "structures_omitted", stats.StructuresOmitted)
	if stats.TypesOmitted+stats.StructuresOmitted > 0 {
		logger.Log.Warn("Incomplete entries left out",
			"types", stats.TypesOmitted, "structures", stats.StructuresOmitted)
	}
	return out, nil
}

func writeOutput(stdout io.Writer, path string, out []byte) error {
	out = append(out, '\n')
	if path == "" {
		_, err := stdout.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return perrors.New(perrors.ErrCodeUnknown, "WriteOutput", "cannot write "+path, err)
	}
	logger.Log.Info("Descriptor written", "path", path)
	return nil
}

// Personal.AI order the ending
