// Command paleoq is a diagnostic CLI client for a running paleofed
// gateway: it issues one composite query and prints the merged records,
// warnings, and resolved subquery URLs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"
)

func main() {
	var (
		base    = flag.String("base", "http://localhost:8080", "Gateway base URL")
		query   = flag.String("q", "", "Raw query string, e.g. taxon_name=Canis&max_ma=2")
		format  = flag.String("fmt", "json", "Response format (json|csv|tsv|txt)")
		single  = flag.Bool("single", false, "Use occs/single instead of occs/list")
		timeout = flag.Duration("timeout", 10*time.Second, "Client timeout")
		quiet   = flag.Bool("quiet", false, "Suppress output (exit status indicates success)")
	)
	flag.Parse()

	body, status, err := doQuery(*base, *format, *query, *single, *timeout)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "paleoq error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		if status >= 400 {
			os.Exit(1)
		}
		return
	}

	if *format != "json" {
		fmt.Printf("status=%d\n", status)
		fmt.Println(string(body))
		return
	}

	var resp struct {
		Results  []map[string]any `json:"results"`
		Warnings []string         `json:"warnings"`
		URLs     []string         `json:"urls"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		fmt.Printf("status=%d (unparseable response)\n", status)
		fmt.Println(string(body))
		return
	}

	fmt.Printf("status=%d records=%d warnings=%d\n", status, len(resp.Results), len(resp.Warnings))
	for _, u := range resp.URLs {
		fmt.Println("url:", u)
	}
	for _, w := range resp.Warnings {
		fmt.Println("warning:", w)
	}

	rows := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		rows = append(rows, formatRecord(r))
	}
	sort.Strings(rows)
	for _, s := range rows {
		fmt.Println(s)
	}
}

func doQuery(base, format, rawQuery string, single bool, timeout time.Duration) (body []byte, status int, err error) {
	endpoint := "occs/list"
	if single {
		endpoint = "occs/single"
	}
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/" + endpoint + "." + format)
	if err != nil {
		return nil, 0, err
	}
	u.RawQuery = rawQuery

	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(u.String())
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if rerr != nil {
			break
		}
	}
	return buf, resp.StatusCode, nil
}

// identifierKeys are the field names each adapter stores its canonical
// prefixed identifier under (transform.SetIdentifier callers differ per
// upstream's own native id field).
var identifierKeys = []string{"occurrence_no", "occid"}

func formatRecord(r map[string]any) string {
	database, _ := r["database"].(string)
	recordType, _ := r["record_type"].(string)
	var id string
	for _, k := range identifierKeys {
		if s, ok := r[k].(string); ok && s != "" {
			id = s
			break
		}
	}
	return fmt.Sprintf("%s %s %s", database, recordType, id)
}
