// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexandremahdhaoui/csx-stats/internal/mcpserver"
	"github.com/alexandremahdhaoui/csx-stats/pkg/ledger"
	"github.com/alexandremahdhaoui/csx-stats/pkg/statspub"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PublishInput represents the input parameters for the publish-stats tool.
type PublishInput struct {
	AppHome               string `json:"appHome,omitempty" jsonschema:"Home of the CSX instance. Defaults to CSX_STATS_APP_HOME or the config file."`
	ServerHome            string `json:"serverHome,omitempty" jsonschema:"Home of the Tomcat server. Defaults to CSX_STATS_SERVER_HOME or the config file."`
	AllowGeneratorFailure bool   `json:"allowGeneratorFailure,omitempty" jsonschema:"Publish whatever output exists even if a generator fails"`
}

// ListPublicationsInput represents the input parameters for the list-publications tool.
type ListPublicationsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of records to return, newest first. Omit for all."`
}

// ListPublicationsResult represents the result of listing publications.
type ListPublicationsResult struct {
	Records []ledger.PublishRecord `json:"records"`
	Count   int                    `json:"count"`
}

// runMCPServer starts the csx-stats MCP server with stdio transport.
func runMCPServer() error {
	server := mcpserver.New(Name, Version)

	mcpserver.RegisterTool(server, &mcp.Tool{
		Name:        "publish-stats",
		Description: "Run the CiteSeerX statistics generators (bin/genStats, bin/genHomePageStats) and replace the Tomcat webapp's WEB-INF/stats directory with their output. Returns the publish record, including generator exit codes and the digest of the deployed tree.",
	}, handlePublishTool)

	mcpserver.RegisterTool(server, &mcp.Tool{
		Name:        "list-publications",
		Description: "List previous stats publications from the publish ledger, newest first.",
	}, handleListPublicationsTool)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}

// handlePublishTool handles the "publish-stats" tool call from MCP clients.
// Generator output goes to stderr so the JSON-RPC stream on stdout stays intact.
func handlePublishTool(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PublishInput,
) (*mcp.CallToolResult, any, error) {
	log.Printf("Publishing stats: appHome=%q serverHome=%q", input.AppHome, input.ServerHome)

	opts, err := loadOptions(nil, os.Stderr)
	if err != nil {
		return mcpserver.ErrorResult(fmt.Sprintf("Publish failed: %v", err)), nil, nil
	}

	opts.config = opts.config.Merge(statspub.Config{
		AppHome:               input.AppHome,
		ServerHome:            input.ServerHome,
		AllowGeneratorFailure: input.AllowGeneratorFailure,
	})

	orch, err := opts.orchestrator(ctx, os.Stderr, os.Stderr)
	if err != nil {
		return mcpserver.ErrorResult(fmt.Sprintf("Publish failed: %v", err)), nil, nil
	}

	record, err := orch.Run(ctx)
	if err != nil {
		if record.ID == "" {
			return mcpserver.ErrorResult(fmt.Sprintf("Publish failed: %v", err)), nil, nil
		}
		return mcpserver.ErrorResult(fmt.Sprintf("Publish %s failed: %v", record.ID, err)), record, nil
	}

	return mcpserver.SuccessResult(fmt.Sprintf(
		"Published %d file(s) to %s (publication %s)", record.FileCount, record.Destination, record.ID,
	)), record, nil
}

// handleListPublicationsTool handles the "list-publications" tool call from MCP clients.
func handleListPublicationsTool(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListPublicationsInput,
) (*mcp.CallToolResult, any, error) {
	opts, err := loadOptions(nil, os.Stderr)
	if err != nil {
		return mcpserver.ErrorResult(fmt.Sprintf("Listing failed: %v", err)), nil, nil
	}

	records, err := ledger.New(opts.ledgerPath).List()
	if err != nil {
		return mcpserver.ErrorResult(fmt.Sprintf("Listing failed: %v", err)), nil, nil
	}

	if input.Limit > 0 && len(records) > input.Limit {
		records = records[:input.Limit]
	}

	result := ListPublicationsResult{Records: records, Count: len(records)}
	return mcpserver.SuccessResult(fmt.Sprintf("Found %d publication(s)", len(records))), result, nil
}
