package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dzjyyds666/structenv/parse/unduni"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Encode or decode UndUni key text",
}

var keyEncodeCmd = &cobra.Command{
	Use:     "encode <text>...",
	Short:   "Encode text as an ASCII key",
	Example: `  structenv key encode "a-b c"   # a_s_b_20_c`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, a := range args {
			fmt.Fprintln(cmd.OutOrStdout(), unduni.Encode(a))
		}
	},
}

var keyDecodeCmd = &cobra.Command{
	Use:   "decode <key>...",
	Short: "Decode an ASCII key back to text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range args {
			s, err := unduni.Decode(a)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keyEncodeCmd)
	keyCmd.AddCommand(keyDecodeCmd)
}
