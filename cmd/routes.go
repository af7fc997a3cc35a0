package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hmans/todograph/internal/graph"
	"github.com/hmans/todograph/internal/ui"
)

var routesJSON bool

// routeJSON is the --json representation of a route.
type routeJSON struct {
	Field  string `json:"field"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Shape  string `json:"shape"`
	Type   string `json:"type"`
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show which upstream request resolves each field",
	Long: `Print the route table: for every routed GraphQL field, the upstream
request that resolves it and how the response body becomes the field value.

Each resolution is one request. The table is checked against the schema
before it is printed.

Examples:
  todograph routes
  todograph routes --relations legacy
  todograph routes --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := newSchema()
		if err != nil {
			return err
		}
		routes := schema.Routes()
		def := schema.Definition()

		out := cmd.OutOrStdout()
		all := routes.All()

		if routesJSON {
			list := make([]routeJSON, len(all))
			for i, r := range all {
				list[i] = routeJSON{Field: r.Key(), Method: r.Method, Path: r.Path, Shape: r.Shape.String(), Type: fieldType(def, r)}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}

		rows := make([]ui.Row, len(all))
		for i, r := range all {
			rows[i] = ui.Row{r.Key(), fieldType(def, r), r.Method, cfg.Upstream.BaseURL + r.Path, r.Shape.String()}
		}

		fmt.Fprintln(out, ui.Header.Render("Routes ("+routes.Mode()+" relations)"))
		fmt.Fprint(out, ui.RenderTable([]ui.Column{
			{Header: "FIELD", Style: func(s string) string { return ui.Field.Render(s) }},
			{Header: "TYPE"},
			{Header: "METHOD"},
			{Header: "UPSTREAM", Style: func(s string) string { return ui.Path.Render(s) }},
			{Header: "SHAPE", Style: ui.RenderShape},
		}, rows))
		return nil
	},
}

// fieldType returns the GraphQL type of a routed field, e.g. "[Todo]".
func fieldType(def *ast.Schema, r graph.Route) string {
	t := def.Types[r.Type]
	if t == nil {
		return ""
	}
	f := t.Fields.ForName(r.Field)
	if f == nil {
		return ""
	}
	return f.Type.String()
}

func init() {
	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(routesCmd)
}
