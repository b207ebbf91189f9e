package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/knotlang/knot/config"
	"github.com/knotlang/knot/display"
	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/graph"
	"github.com/knotlang/knot/kn/expand"
	"github.com/knotlang/knot/kn/generate"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
)

// ConvertCmd represents the convert command
var ConvertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert between notation and the graph representation",
	Long: `Convert between notation text and the stable graph representation.

External renderers (Markdown, Mermaid, visualization frontends) consume the
graph form and never read notation directly. Notation input is resolved
(templates instantiated, synthesized structures dissolved) before export, so
the graph always reflects the expanded document.

Formats:
  notation - knot surface syntax (default input)
  json     - graph representation as JSON
  yaml     - graph representation as YAML (output only)

Examples:
  knot convert --to json doc.kn
  knot convert --to yaml doc.kn
  knot convert --from json --to notation graph.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

var (
	convertFrom   string
	convertTo     string
	convertOutput string
)

func init() {
	ConvertCmd.Flags().StringVar(&convertFrom, "from", "notation", "Input format: notation, json")
	ConvertCmd.Flags().StringVar(&convertTo, "to", "json", "Output format: notation, json, yaml")
	ConvertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file (default stdout)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	src, err := readInput(args)
	if err != nil {
		return err
	}

	doc, err := convertInput(cmd, cfg, src)
	if err != nil {
		return err
	}

	out, err := convertRender(cfg, doc)
	if err != nil {
		return err
	}
	return writeOutput(convertOutput, out)
}

func convertInput(cmd *cobra.Command, cfg *config.Config, src string) (*types.Document, error) {
	switch convertFrom {
	case "notation":
		res := parser.Parse(src)
		if res.Diags.HasErrors() {
			printDiagnostics(cmd, res.Diags)
			return nil, errors.New("document has errors, not converting")
		}
		x := &expand.Expander{MaxDepth: cfg.MaxDepth()}
		if err := x.All(res.Doc); err != nil {
			return nil, errors.Wrap(err, "expansion failed")
		}
		return res.Doc, nil

	case "json":
		var g graph.Graph
		if err := json.Unmarshal([]byte(src), &g); err != nil {
			return nil, errors.Wrap(err, "failed to parse graph JSON")
		}
		return g.ToDocument()

	default:
		return nil, errors.Newf("unsupported input format: %s (supported: notation, json)", convertFrom)
	}
}

func convertRender(cfg *config.Config, doc *types.Document) (string, error) {
	switch convertTo {
	case "notation":
		return generate.Render(doc), nil

	case "json":
		data, err := display.MarshalJSON(graph.FromDocument(doc), cfg.Output.Pretty)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal graph to JSON")
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal(graph.FromDocument(doc))
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal graph to YAML")
		}
		return string(data), nil

	default:
		return "", errors.Newf("unsupported output format: %s (supported: notation, json, yaml)", convertTo)
	}
}
