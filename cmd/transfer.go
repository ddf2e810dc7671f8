package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/store"
)

//nolint:gochecknoglobals // Cobra boilerplate
var exportFormat string

//nolint:gochecknoglobals // Cobra boilerplate
var exportOutput string

//nolint:gochecknoglobals // Cobra boilerplate
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the stored document",
	Long: `Print the stored document, merged over the defaults, as JSON or YAML.

Example:
  folio export > backup.json
  folio export --format yaml --output site.yaml`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

//nolint:gochecknoglobals // Cobra boilerplate
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a JSON or YAML document into storage",
	Long: `Merge a JSON or YAML file into the stored document. Only the sections
present in the file are touched: lists replace the stored list and other
sections overwrite just the fields they name.

Example:
  folio import backup.json
  folio import about.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
}

// openStore opens the configured backend for a one-shot command.
func openStore() (st *store.Store, closeFn func() error, err error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	backend, closeFn, err := store.OpenBackend(cfg.StorageBackend, cfg.DataFile, cfg.LocalDB)
	if err != nil {
		return nil, nil, err
	}
	return store.New(backend, store.WithLogger(logger)), closeFn, nil
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	st, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	var out io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, ferr := os.Create(exportOutput)
		if ferr != nil {
			return errors.Wrap(ferr, "create output file")
		}
		defer f.Close()
		out = f
	}
	return writeDocument(out, st.Read(context.Background()), exportFormat)
}

func writeDocument(w io.Writer, doc portfolio.Document, format string) (err error) {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(doc)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = errors.Errorf("invalid format '%s': must be 'json' or 'yaml'", format)
	}
	return err
}

func runImport(cmd *cobra.Command, args []string) (err error) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "read import file")
	}
	p, err := parsePartial(data, filepath.Ext(args[0]))
	if err != nil {
		return err
	}
	if err = p.Validate(); err != nil {
		return err
	}

	st, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	if err = st.Write(context.Background(), p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d section(s): %v\n", len(p), p.Sections())
	return nil
}

// parsePartial reads a JSON or YAML document into a partial. YAML is
// converted section by section to JSON so both go through the same merge.
func parsePartial(data []byte, ext string) (p portfolio.Partial, err error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var sections map[string]any
		if err = yaml.Unmarshal(data, &sections); err != nil {
			return nil, errors.Wrap(err, "parse yaml")
		}
		p = make(portfolio.Partial, len(sections))
		for name, v := range sections {
			raw, merr := json.Marshal(v)
			if merr != nil {
				return nil, errors.Wrapf(merr, "convert section %s", name)
			}
			p[portfolio.Section(name)] = raw
		}
	default:
		if err = json.Unmarshal(data, &p); err != nil {
			return nil, errors.Wrap(err, "parse json")
		}
	}
	if len(p) == 0 {
		return nil, errors.New("import file names no sections")
	}
	return p, nil
}
