// Package mcp exposes the converter as MCP tools over stdio.
package mcp

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/classmod/pkg/convert"
	"github.com/gnana997/classmod/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for classmod, exposing in-memory
// conversion and utility lookup tools. Nothing is written to disk.
type Server struct {
	mcpServer *server.MCPServer
	conv      *convert.Converter
	logger    *mcplog.Logger // may be nil
}

// NewServer creates a new MCP server backed by conv. Tool calls are logged
// to logger when it is not nil.
func NewServer(conv *convert.Converter, logger *mcplog.Logger) *Server {
	s := &Server{conv: conv, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("classmod", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: convertClassesTool(), Handler: s.handleConvertClasses},
		server.ServerTool{Tool: convertSourceTool(), Handler: s.handleConvertSource},
		server.ServerTool{Tool: lookupUtilityTool(), Handler: s.handleLookupUtility},
	)

	return s
}

// ServeStdio serves MCP requests on the given streams until ctx is done or
// stdin is closed.
func (s *Server) ServeStdio(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, stdin, stdout)
}
