package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/meli-client/internal/meli"
)

// requestCmd builds a command that sends one authenticated call with the
// given HTTP method.
func requestCmd(method string) *cobra.Command {
	var (
		queries []string
		headers []string
		data    string
		include bool
	)

	name := strings.ToLower(method)
	c := &cobra.Command{
		Use:   name + " <path>",
		Short: fmt.Sprintf("Send a %s request to the API", method),
		Example: fmt.Sprintf(`  meli %[1]s /users/me
  meli %[1]s /sites/MLB -q attributes=id,name --include`, name),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd.InOrStdin(), data)
			if err != nil {
				return err
			}

			opts, err := requestOptions(queries, headers)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(cmd.Context()) }()

			var reqBody any
			if body != nil {
				reqBody = body
			}
			resp, callErr := a.client.Do(cmd.Context(), meli.NewRequest(method, args[0], reqBody, opts...))
			if resp != nil {
				out := cmd.OutOrStdout()
				if include {
					if err := printStatus(out, resp); err != nil {
						return err
					}
				}
				if err := printBody(out, resp.Body, outputFormat()); err != nil {
					return err
				}
			}
			return callErr
		},
	}

	c.Flags().StringArrayVarP(&queries, "query", "q", nil, "query parameter as key=value (repeatable)")
	c.Flags().StringArrayVarP(&headers, "header", "H", nil, `request header as "Key: Value" (repeatable)`)
	c.Flags().BoolVarP(&include, "include", "i", false, "print the response status and headers")
	if method == "POST" || method == "PUT" {
		c.Flags().StringVarP(&data, "data", "d", "", "JSON body, @file to read a file or - for stdin")
	}

	return c
}

// readBody resolves the --data value. The result is nil when no body was
// given.
func readBody(stdin io.Reader, data string) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	switch {
	case data == "":
		return nil, nil
	case data == "-":
		body, err = io.ReadAll(stdin)
	case strings.HasPrefix(data, "@"):
		body, err = os.ReadFile(data[1:]) //nolint:gosec // path from trusted CLI flag
	default:
		body = []byte(data)
	}
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if !json.Valid(body) {
		return nil, errors.New("request body is not valid JSON")
	}
	return body, nil
}

func requestOptions(queries, headers []string) ([]meli.RequestOption, error) {
	var opts []meli.RequestOption

	if len(queries) > 0 {
		q := url.Values{}
		for _, kv := range queries {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return nil, fmt.Errorf("invalid query %q: expected key=value", kv)
			}
			q.Add(k, v)
		}
		opts = append(opts, meli.WithQuery(q))
	}

	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q: expected \"Key: Value\"", h)
		}
		opts = append(opts, meli.WithRequestHeader(strings.TrimSpace(k), strings.TrimSpace(v)))
	}

	return opts, nil
}
