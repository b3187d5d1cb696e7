package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/medstore/app/repositories/memstore"
	"github.com/shashiranjanraj/medstore/internal/kernel"
	"github.com/shashiranjanraj/medstore/internal/server"
	"github.com/shashiranjanraj/medstore/pkg/auth"
)

// medstore serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}

// medstore route:list builds the kernel over an empty in-memory store
// so no database is needed.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := auth.NewSigner("route-list", 0)
		if err != nil {
			return err
		}
		r := kernel.NewHTTPKernel(kernel.Deps{Store: memstore.New(), Signer: signer})

		infos := r.Routes()
		if len(infos) == 0 {
			fmt.Println("No routes registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
