package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/grim/internal/config"
	"github.com/hupe1980/grim/internal/report"
	"github.com/hupe1980/grim/internal/resource"
)

// sourceOptions selects the rule sources to load.
type sourceOptions struct {
	classpath   string
	metricsFile string
}

// refs returns the positional sources followed by the classpath entries.
func (o *sourceOptions) refs(args []string) ([]string, error) {
	refs := append([]string{}, args...)
	refs = append(refs, resource.SplitClasspath(o.classpath)...)

	if len(refs) == 0 {
		return nil, &ExitError{Code: ExitUsage, Err: fmt.Errorf("no rule sources: pass directories or archives as arguments or use --classpath")}
	}

	return refs, nil
}

// propertyOptions collects compile-time properties.
type propertyOptions struct {
	properties     []string
	propertiesFile string
}

// resolve layers config file, properties file and flags, later wins.
func (o *propertyOptions) resolve(cfg *config.Config) (map[string]string, error) {
	var fromFile map[string]string

	if o.propertiesFile != "" {
		var err error

		fromFile, err = config.LoadPropertiesFile(o.propertiesFile)
		if err != nil {
			return nil, &ExitError{Code: ExitUsage, Err: err}
		}
	}

	fromFlags, err := config.ParsePropertyFlags(o.properties)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}

	return config.MergeProperties(cfg.Properties, fromFile, fromFlags), nil
}

// symbolOptions collects the symbols to decide on.
type symbolOptions struct {
	symbols     []string
	symbolsFile string
}

func (o *symbolOptions) resolve() ([]report.Symbol, error) {
	var symbols []report.Symbol

	if o.symbolsFile != "" {
		f, err := os.Open(o.symbolsFile)
		if err != nil {
			return nil, &ExitError{Code: ExitUsage, Err: fmt.Errorf("opening symbols file: %w", err)}
		}
		defer f.Close()

		symbols, err = report.ReadSymbols(f)
		if err != nil {
			return nil, &ExitError{Code: ExitUsage, Err: fmt.Errorf("%s: %w", o.symbolsFile, err)}
		}
	}

	for _, raw := range o.symbols {
		sym, err := report.ParseSymbol(raw)
		if err != nil {
			return nil, &ExitError{Code: ExitUsage, Err: err}
		}

		symbols = append(symbols, sym)
	}

	if len(symbols) == 0 {
		return nil, &ExitError{Code: ExitUsage, Err: fmt.Errorf("no symbols: use --symbol or --symbols-file")}
	}

	return symbols, nil
}

func registerSourceFlags(cmd *cobra.Command, opts *sourceOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.classpath, "classpath", "c", "", "rule sources separated by the OS path list separator")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write load metrics in Prometheus text format to this file")
}

func registerPropertyFlags(cmd *cobra.Command, opts *propertyOptions) {
	f := cmd.Flags()
	f.StringArrayVarP(&opts.properties, "property", "D", nil, "compile-time property (key=value), repeatable")
	f.StringVar(&opts.propertiesFile, "properties-file", "", "YAML or JSON file with compile-time properties")
}

func registerSymbolFlags(cmd *cobra.Command, opts *symbolOptions) {
	f := cmd.Flags()
	f.StringArrayVarP(&opts.symbols, "symbol", "s", nil, "symbol to decide on (Type or Type#member), repeatable")
	f.StringVar(&opts.symbolsFile, "symbols-file", "", "file with one symbol per line")
}
