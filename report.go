package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"clinical-lookup/internal/client"
	"clinical-lookup/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report RESULT_ID",
		Short: "Fetch a result and print its report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid result id %q", args[0])
			}
			asHTML, _ := cmd.Flags().GetBool("html")
			outPath, _ := cmd.Flags().GetString("out")
			token, _ := cmd.Flags().GetString("token")

			cfg, logger, err := bootstrap(os.Stderr)
			if err != nil {
				return err
			}
			if token == "" {
				token = cfg.Lookup.Token
			}
			api := client.New(cfg.Lookup.APIURL, client.WithToken(token), client.WithLogger(logger))

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Lookup.RequestTimeout)
			defer cancel()
			result, err := api.Result(ctx, uint(id))
			if err != nil {
				return err
			}
			doc, err := report.Format(result, report.WithLetterhead(letterhead(cfg)))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if asHTML {
				return doc.WriteHTML(w)
			}
			return doc.WriteText(w)
		},
	}
	cmd.Flags().Bool("html", false, "Render HTML instead of plain text")
	cmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().String("token", "", "Bearer token (defaults to LOOKUP_TOKEN)")
	return cmd
}
