package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/zparse/internal/config"
	"github.com/dshills/zparse/internal/config/loader"
	"github.com/dshills/zparse/internal/document"
	"github.com/dshills/zparse/internal/rules"
)

// app holds the state shared by all subcommands.
type app struct {
	out    io.Writer
	errOut io.Writer
	fs     loader.FileSystem

	configPath string
	language   string
	rulesPath  string
	logLevel   string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		out:    out,
		errOut: errOut,
		fs:     loader.DefaultFS(),
		log:    zerolog.Nop(),
	}

	root := &cobra.Command{
		Use:   "zparse",
		Short: "Tokenize mainframe source into an offset-addressable tree",
		Long: `zparse splits column-sensitive mainframe sources (HLASM, COBOL or any
language described by a rule file) into a lossless syntax tree and answers
offset, path and word queries against it.

Rule sets are chosen by --rules, then --lang, then the file extension, then
rules.language from the configuration.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file (.toml or .yaml)")
	flags.StringVarP(&a.language, "lang", "l", "", "language preset or rule name")
	flags.StringVarP(&a.rulesPath, "rules", "r", "", "rule file (.toml or .yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.treeCmd(),
		a.renderCmd(),
		a.wordCmd(),
		a.lineCmd(),
		a.pathCmd(),
		a.watchCmd(),
		a.languagesCmd(),
	)
	return root
}

// setup resolves configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{Path: a.configPath, FS: a.fs})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Str("cmd", cmd.Name()).
		Logger()
	return nil
}

// loadRules picks the rule set for file.
func (a *app) loadRules(file string) (*rules.Compiled, error) {
	if a.rulesPath != "" {
		return rules.LoadFile(a.fs, a.rulesPath)
	}

	lang := a.language
	if lang == "" {
		if rs, err := rules.PresetForExtension(filepath.Ext(file)); err == nil {
			return rs, nil
		}
		lang = a.cfg.Rules.Language
	}

	if a.cfg.Rules.Dir != "" {
		for _, ext := range []string{".toml", ".yaml", ".yml"} {
			path := filepath.Join(a.cfg.Rules.Dir, strings.ToLower(lang)+ext)
			if _, err := a.fs.Stat(path); err == nil {
				a.log.Debug().Str("rules", path).Msg("using rule file")
				return rules.LoadFile(a.fs, path)
			}
		}
	}
	return rules.Preset(lang)
}

// open reads and parses file.
func (a *app) open(file string) (*document.Document, error) {
	rs, err := a.loadRules(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := document.New(string(data), rs, document.WithLogger(a.log))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	a.log.Debug().
		Str("file", file).
		Str("language", rs.Language()).
		Str("revision", doc.Revision()).
		Msg("parsed")
	return doc, nil
}
