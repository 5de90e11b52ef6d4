package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/meli-client/internal/meli"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBody writes a response body, indenting it when it is JSON and the
// output format allows.
func printBody(w io.Writer, body []byte, format string) error {
	if len(body) == 0 {
		return nil
	}
	if format != "raw" && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			buf.WriteByte('\n')
			_, err = buf.WriteTo(w)
			return err
		}
	}
	_, err := w.Write(body)
	return err
}

func printStatus(w io.Writer, resp *meli.Response) error {
	if _, err := fmt.Fprintf(w, "HTTP %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode)); err != nil {
		return err
	}
	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range resp.Header[k] {
			if _, err := fmt.Fprintf(w, "%s: %s\n", k, v); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// credentialView is the printable form of a credential set.
type credentialView struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	Expired      bool      `json:"expired"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	UserID       int64     `json:"user_id,omitempty"`
}

func newCredentialView(c meli.Credentials, expired, reveal bool) credentialView {
	v := credentialView{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
		Expired:      expired,
		TokenType:    c.TokenType,
		Scope:        c.Scope,
		UserID:       c.UserID,
	}
	if !reveal {
		v.AccessToken = mask(v.AccessToken)
		v.RefreshToken = mask(v.RefreshToken)
	}
	return v
}

func printCredentials(w io.Writer, v credentialView, format string) error {
	if format != "table" {
		return outputJSON(w, v)
	}
	expires := "-"
	if !v.ExpiresAt.IsZero() {
		expires = v.ExpiresAt.Format(time.RFC3339)
	}
	tw := newTabWriter(w)
	tw.writef("Access Token:\t%s\n", orDash(v.AccessToken))
	tw.writef("Refresh Token:\t%s\n", orDash(v.RefreshToken))
	tw.writef("Expires At:\t%s\n", expires)
	tw.writef("Expired:\t%v\n", v.Expired)
	if v.UserID != 0 {
		tw.writef("User ID:\t%d\n", v.UserID)
	}
	if v.Scope != "" {
		tw.writef("Scope:\t%s\n", v.Scope)
	}
	return tw.finish()
}

// mask keeps the last four characters of a secret.
func mask(s string) string {
	const visible = 4
	if len(s) <= visible {
		return s
	}
	return "****" + s[len(s)-visible:]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
