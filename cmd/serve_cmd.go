package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dzjyyds666/structenv/server"
)

type ServeParams struct {
	Addr string `json:"addr"` // 监听地址, 默认取配置 server.addr
}

var serveParams = &ServeParams{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON/StructEnv converter over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveParams.Addr
		if addr == "" {
			addr = config.Server.Addr
		}
		srv := server.New(server.Config{
			Logger:    logger.WithPrefix("http"),
			Separator: config.Separator,
		})
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveParams.Addr, "addr", "a", "", "listen address")
}
