package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/vektah/gqlparser/v2/formatter"
	"golang.org/x/term"

	"github.com/hmans/todograph/internal/graph"
)

var (
	queryJSON       bool
	queryVariables  string
	queryOperation  string
	querySchemaOnly bool
)

var graphqlCmd = &cobra.Command{
	Use:     "graphql <query>",
	Aliases: []string{"query"},
	Short:   "Execute a GraphQL query against the upstream API",
	Long: `Execute a GraphQL query without starting a server.

The argument should be a valid GraphQL query string. Each selected field
is fetched from the upstream API as it would be by the server.

Examples:
  # List all todos
  todograph graphql '{ getTodos { id title completed } }'

  # Get a specific user
  todograph graphql '{ getUser(id: "1") { id name email } }'

  # Follow relations
  todograph graphql '{ getTodos { id title user { name } } }'

  # Use variables
  todograph graphql -v '{"id": "1"}' 'query GetUser($id: ID!) { getUser(id: $id) { name } }'

  # Read from stdin (useful for complex queries or escaping issues)
  echo '{ getAllUsers { id name } }' | todograph graphql
  cat query.graphql | todograph graphql

  # Print the schema
  todograph graphql --schema`,
	Args: func(cmd *cobra.Command, args []string) error {
		if querySchemaOnly {
			return nil
		}
		// Allow 0 args if stdin has data, or exactly 1 arg
		if len(args) > 1 {
			return fmt.Errorf("accepts at most 1 argument (the GraphQL query)")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if querySchemaOnly {
			return printSchema(out)
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		} else {
			stdinQuery, err := readFromStdin()
			if err != nil {
				return err
			}
			if stdinQuery == "" {
				return fmt.Errorf("no query provided (pass as argument or pipe to stdin)")
			}
			query = stdinQuery
		}

		var variables map[string]any
		if queryVariables != "" {
			if err := json.Unmarshal([]byte(queryVariables), &variables); err != nil {
				return fmt.Errorf("invalid variables JSON: %w", err)
			}
		}

		// Partial data is printed even when some fields failed
		result, err := executeQuery(cmd.Context(), query, variables, queryOperation)
		if len(result) > 0 && string(result) != "null" {
			if queryJSON || !isTerminal(os.Stdout) {
				fmt.Fprintln(out, string(result))
			} else {
				fmt.Fprintln(out, string(pretty.Color(pretty.Pretty(result), nil)))
			}
		}
		return err
	},
}

// readFromStdin reads the query from stdin if data is available.
func readFromStdin() (string, error) {
	// A terminal means nothing was piped in
	if isTerminal(os.Stdin) {
		return "", nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// executeQuery runs a GraphQL query against the upstream API and returns the
// data portion of the response. Any GraphQL error, including a single failed
// field, is returned as an error alongside whatever data did resolve.
func executeQuery(ctx context.Context, query string, variables map[string]any, operationName string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	schema, err := newSchema()
	if err != nil {
		return nil, err
	}

	resp := schema.Exec(ctx, query, operationName, variables)
	return resp.Data, formatGraphQLErrors(resp.Errors)
}

// formatGraphQLErrors formats GraphQL errors into a single error.
func formatGraphQLErrors(errs []*gqlerrors.QueryError) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return fmt.Errorf("graphql: %s", errs[0].Message)
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("graphql errors:\n  %s", strings.Join(msgs, "\n  "))
}

// printSchema writes the GraphQL schema.
func printSchema(w io.Writer) error {
	s, err := GetGraphQLSchema()
	if err != nil {
		return err
	}
	fmt.Fprint(w, s)
	return nil
}

// GetGraphQLSchema returns the GraphQL schema as a formatted string.
func GetGraphQLSchema() (string, error) {
	def, err := graph.ParseSDL()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	f := formatter.NewFormatter(&buf, formatter.WithIndent("  "))
	f.FormatSchema(def)

	return buf.String(), nil
}

func init() {
	graphqlCmd.Flags().BoolVar(&queryJSON, "json", false, "Output raw JSON (no formatting)")
	graphqlCmd.Flags().StringVarP(&queryVariables, "variables", "v", "", "Query variables as JSON string")
	graphqlCmd.Flags().StringVarP(&queryOperation, "operation", "o", "", "Operation name (for multi-operation documents)")
	graphqlCmd.Flags().BoolVar(&querySchemaOnly, "schema", false, "Print the GraphQL schema and exit")
	rootCmd.AddCommand(graphqlCmd)
}
