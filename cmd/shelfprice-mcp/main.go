// Command shelfprice-mcp exposes the shelfprice API to MCP clients over stdio.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type scrapeItem struct {
	Name string `json:"name"`
}

// scrapeRequest mirrors the shelfprice API request model.
type scrapeRequest struct {
	Items []scrapeItem `json:"items"`
}

// resultRecord mirrors one element of the shelfprice API response.
type resultRecord struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Store string `json:"store"`
}

type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("SHELFPRICE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}

	s := server.NewMCPServer(
		"shelfprice",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	compareTool := mcp.NewTool("compare_prices",
		mcp.WithDescription("Search each supported grocery retailer for every item and return the first matching product's name and price per store. Prices are plain numbers; 'Not Found', 'N/A' and 'Error' mark missing results."),
		mcp.WithArray("items",
			mcp.Required(),
			mcp.Description("Grocery items to search for, e.g. [\"milk\", \"free range eggs\"]"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(compareTool, handleComparePrices(apiURL, &http.Client{Timeout: 10 * time.Minute}))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleComparePrices(apiURL string, client *http.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := request.RequireStringSlice("items")
		if err != nil {
			return mcp.NewToolResultError("items is required"), nil
		}
		if len(names) == 0 {
			return mcp.NewToolResultError("items must not be empty"), nil
		}

		reqBody := scrapeRequest{Items: make([]scrapeItem, 0, len(names))}
		for _, n := range names {
			reqBody.Items = append(reqBody.Items, scrapeItem{Name: n})
		}
		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(apiURL, "/")+"/api/scrape", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		if resp.StatusCode != http.StatusOK {
			var errResp errorResponse
			if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
				return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", errResp.Error.Code, errResp.Error.Message)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("API returned status %d", resp.StatusCode)), nil
		}

		var records []resultRecord
		if err := json.Unmarshal(respBody, &records); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		return mcp.NewToolResultText(formatResults(records)), nil
	}
}

// formatResults renders records as an aligned plain-text table.
func formatResults(records []resultRecord) string {
	if len(records) == 0 {
		return "No results."
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Store\tProduct\tPrice")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Store, r.Name, r.Price)
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}
