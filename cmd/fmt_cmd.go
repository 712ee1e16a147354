package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/dzjyyds666/structenv/parse/structenv"
	"github.com/dzjyyds666/structenv/pkg"
)

type FmtParams struct {
	Input     string `json:"input"`     // 输入文件路径, 默认 stdin
	Write     bool   `json:"write"`     // 结果写回输入文件
	Diff      bool   `json:"diff"`      // 只输出差异
	Separator string `json:"separator"` // 键分隔符, 默认沿用输入
}

var fmtParams = &FmtParams{}

var fmtCmd = &cobra.Command{
	Use:   "fmt",
	Short: "Rewrite StructEnv text in canonical form",
	Long: `fmt parses StructEnv text and writes it back canonically: strings quoted,
keys escaped, comments and blank lines dropped. #plug lines are not executed and
do not survive formatting.`,
	Args: cobra.NoArgs,
	RunE: fmtRun,
}

func init() {
	fmtCmd.Flags().StringVarP(&fmtParams.Input, "input", "i", "", "input file path")
	fmtCmd.Flags().BoolVarP(&fmtParams.Write, "write", "w", false, "write the result back to the input file")
	fmtCmd.Flags().BoolVarP(&fmtParams.Diff, "diff", "d", false, "print a line diff instead of the result")
	fmtCmd.Flags().StringVarP(&fmtParams.Separator, "separator", "s", "", `key separator "_" or "." (default keeps the input's)`)
}

func fmtRun(cmd *cobra.Command, args []string) error {
	if fmtParams.Write && (fmtParams.Input == "" || fmtParams.Input == "-") {
		return errors.New("--write needs an input file")
	}
	data, err := pkg.ReadInput(fmtParams.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	src := string(data)
	out, err := canonical(src, fmtParams.Separator)
	if err != nil {
		return err
	}

	if fmtParams.Diff {
		color := false
		if f, ok := cmd.OutOrStdout().(*os.File); ok {
			color = isatty.IsTerminal(f.Fd())
		}
		fmt.Fprint(cmd.OutOrStdout(), lineDiff(src, out, color))
		return nil
	}
	if fmtParams.Write {
		if out == src {
			return nil
		}
		return pkg.WriteOutput(fmtParams.Input, []byte(out), nil)
	}
	return pkg.WriteOutput("", []byte(out), cmd.OutOrStdout())
}

func canonical(src, sepFlag string) (string, error) {
	doc, err := structenv.Parse(src)
	if err != nil {
		return "", err
	}
	sep := structenv.DetectNotation(src).Separator
	if sepFlag != "" {
		if sep, err = separator(sepFlag, doc); err != nil {
			return "", err
		}
	}
	out, err := structenv.Serialize(doc, sep)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

// lineDiff renders a unified-style line diff of a and b. Unchanged text is
// omitted; an empty string means no difference.
func lineDiff(a, b string, color bool) string {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix, on string
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix, on = "+", "\x1b[32m"
		case diffpatch.DiffDelete:
			prefix, on = "-", "\x1b[31m"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			if color {
				sb.WriteString(on + prefix + strings.TrimSuffix(line, "\n") + "\x1b[0m\n")
				continue
			}
			sb.WriteString(prefix + line)
		}
	}
	return sb.String()
}
