// Command kz80bc compiles CALC source into a Z80 bytecode program, a
// runnable ROM image, or generates the standalone REPL ROM, and can dump
// tokens/AST/bytecode along the way for diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/ajokela/kz80-bc/pkg/compiler"
	"github.com/ajokela/kz80-bc/pkg/lexer"
	"github.com/ajokela/kz80-bc/pkg/listing"
	"github.com/ajokela/kz80-bc/pkg/parser"
	"github.com/ajokela/kz80-bc/pkg/repl"
	"github.com/ajokela/kz80-bc/pkg/rom"
	"github.com/spf13/cobra"
)

func main() {
	var (
		bytecodeOut string
		romOut      string
		replOut     string
		dumpTokens  bool
		dumpAST     bool
		dumpBytes   bool
		bytesJSON   string
	)

	rootCmd := &cobra.Command{
		Use:   "kz80bc [source]",
		Short: "CALC compiler and ROM generator for the kz80-bc Z80 VM",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replOut != "" {
				image, err := repl.GenerateREPLROM()
				if err != nil {
					return fmt.Errorf("Compile error: %w", err)
				}
				if err := os.WriteFile(replOut, image, 0o644); err != nil {
					return fmt.Errorf("Error writing %s: %w", replOut, err)
				}
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("a source file is required unless --repl is given")
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("Error reading %s: %w", args[0], err)
			}

			if dumpTokens {
				for _, tok := range lexer.Tokenize(string(src)) {
					fmt.Printf("%4d:%-3d %-12v %q\n", tok.Line, tok.Col, tok.Kind, tok.Text)
				}
			}

			prog, err := parser.Parse(string(src))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
				os.Exit(1)
			}

			if dumpAST {
				for _, fn := range prog.Functions {
					fmt.Printf("%#v\n", fn)
				}
				for _, stmt := range prog.Statements {
					fmt.Printf("%#v\n", stmt)
				}
			}

			module, err := compiler.Compile(prog)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
				os.Exit(1)
			}

			if dumpBytes {
				fmt.Print(listing.Text(listing.Disassemble(module)))
			}
			if bytesJSON != "" {
				data, err := listing.JSON(module)
				if err != nil {
					return fmt.Errorf("Compile error: %w", err)
				}
				if err := os.WriteFile(bytesJSON, data, 0o644); err != nil {
					return fmt.Errorf("Error writing %s: %w", bytesJSON, err)
				}
			}

			switch {
			case romOut != "":
				image, err := rom.GenerateROM(module)
				if err != nil {
					return fmt.Errorf("Compile error: %w", err)
				}
				if err := os.WriteFile(romOut, image, 0o644); err != nil {
					return fmt.Errorf("Error writing %s: %w", romOut, err)
				}
			case bytecodeOut != "":
				if err := os.WriteFile(bytecodeOut, module.Bytecode, 0o644); err != nil {
					return fmt.Errorf("Error writing %s: %w", bytecodeOut, err)
				}
			}

			return nil
		},
	}

	rootCmd.Flags().StringVarP(&bytecodeOut, "output", "o", "", "write raw bytecode to PATH, no runtime")
	rootCmd.Flags().StringVar(&romOut, "rom", "", "write a full ROM image (runtime + bytecode) to PATH")
	rootCmd.Flags().StringVar(&replOut, "repl", "", "write the standalone REPL ROM to PATH, ignoring any source file")
	rootCmd.Flags().BoolVar(&dumpTokens, "tokens", false, "dump the lexed token stream to stdout")
	rootCmd.Flags().BoolVar(&dumpAST, "ast", false, "dump the parsed syntax tree to stdout")
	rootCmd.Flags().BoolVar(&dumpBytes, "bytecode", false, "dump the compiled bytecode as text to stdout")
	rootCmd.Flags().StringVar(&bytesJSON, "bytecode-json", "", "write the compiled bytecode listing as JSON to PATH")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
