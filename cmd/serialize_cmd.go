package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dzjyyds666/structenv/parse"
	"github.com/dzjyyds666/structenv/pkg"
)

type SerializeParams struct {
	Input     string `json:"input"`     // 输入文件路径, 默认 stdin
	Output    string `json:"output"`    // 输出文件地址, 默认 stdout
	From      string `json:"from"`      // 输入格式 json/yaml/toml
	Separator string `json:"separator"` // 键分隔符 _ 或 .
}

var serializeParams = &SerializeParams{}

var serializeCmd = &cobra.Command{
	Use:     "serialize",
	Aliases: []string{"ser"},
	Short:   "Write JSON, YAML or TOML data as StructEnv lines",
	Example: `  structenv serialize -i app.json
  structenv serialize -i app.yaml -s . -o app.env`,
	Args: cobra.NoArgs,
	RunE: serializeRun,
}

func init() {
	serializeCmd.Flags().StringVarP(&serializeParams.Input, "input", "i", "", "input file path")
	serializeCmd.Flags().StringVarP(&serializeParams.Output, "output", "o", "", "output path")
	serializeCmd.Flags().StringVar(&serializeParams.From, "from", "", "input format: json, yaml, toml (default from input extension, else json)")
	serializeCmd.Flags().StringVarP(&serializeParams.Separator, "separator", "s", "", `key separator "_" or "." (default from config, else per document)`)
}

func serializeRun(cmd *cobra.Command, args []string) error {
	format := parse.FormatOf(serializeParams.Input, parse.FormatJSON)
	if serializeParams.From != "" {
		f, err := parse.ParseFormat(serializeParams.From)
		if err != nil {
			return err
		}
		format = f
	}

	data, err := pkg.ReadInput(serializeParams.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	doc, err := parse.Decode(format, data)
	if err != nil {
		return err
	}
	sep, err := separator(serializeParams.Separator, doc)
	if err != nil {
		return err
	}
	out, err := parse.Encode(parse.FormatStructEnv, doc, sep)
	if err != nil {
		return err
	}
	logger.Debug("serialized", "from", format, "separator", sep.String(), "keys", doc.Len())
	return pkg.WriteOutput(serializeParams.Output, out, cmd.OutOrStdout())
}
