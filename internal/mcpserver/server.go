// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes vaultpress conversion tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultpress/internal/press"
)

const formatURI = "vaultpress://post-format"

// Server wraps the MCP server with vaultpress tools.
type Server struct {
	mcp  *server.MCPServer
	svc  *press.Service
	http *http.Client
}

// New creates a new MCP server with all vaultpress tools registered.
func New(svc *press.Service) *Server {
	s := &Server{svc: svc, http: newFetchClient()}

	s.mcp = server.NewMCPServer(
		"vaultpress",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("convert_note",
		mcp.WithDescription("Convert Obsidian note text into a Hugo post without writing anything. "+
			"Returns the converted document."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw note content")),
		mcp.WithString("filename", mcp.Description("Note file name, used for the title when there is no heading")),
		mcp.WithString("policy", mcp.Description("Frontmatter policy: cover (default) or legacy")),
	), s.convertNote)

	s.mcp.AddTool(mcp.NewTool("publish_note",
		mcp.WithDescription("Convert a note and write it as a page bundle in the site. "+
			"Read the vaultpress://post-format resource for the output format."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw note content")),
		mcp.WithString("filename", mcp.Description("Note file name, identifies the source of the post")),
		mcp.WithString("slug", mcp.Description("Bundle slug (defaults to the slugified title)")),
		mcp.WithString("policy", mcp.Description("Frontmatter policy: cover (default) or legacy")),
		mcp.WithString("feature", mcp.Description("Legacy policy only: comma separated 1-based positions of feature images, e.g. 1,3")),
		mcp.WithBoolean("force", mcp.Description("Overwrite a bundle published from another note")),
	), s.publishNote)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List published posts, newest first."),
		mcp.WithString("query", mcp.Description("Optional search over title, slug and source")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of posts (default 50)")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("attach_image",
		mcp.WithDescription("Add an image to a published post's bundle. "+
			"Accepts http(s) URLs or base64 data URIs."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the published post")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Image URL or data URI")),
		mcp.WithString("filename", mcp.Description("File name to store the image under")),
	), s.attachImage)

	s.mcp.AddTool(mcp.NewTool("get_post_format",
		mcp.WithDescription("Returns the post format vaultpress produces. "+
			"Call this before writing notes meant for publishing."),
	), s.getPostFormat)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Post Format",
			mcp.WithResourceDescription("Page bundle and frontmatter format of published posts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) convertNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := s.svc.Publish(ctx, press.PublishRequest{
		Text:     text,
		Filename: req.GetString("filename", ""),
		Policy:   req.GetString("policy", ""),
		DryRun:   true,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(rep.Text), nil
}

func (s *Server) publishNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	features, err := press.ParseFeatures(req.GetString("feature", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := s.svc.Publish(ctx, press.PublishRequest{
		Text:     text,
		Filename: req.GetString("filename", ""),
		Slug:     req.GetString("slug", ""),
		Policy:   req.GetString("policy", ""),
		Feature:  features,
		Force:    req.GetBool("force", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rep, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts, total, err := s.svc.Posts(req.GetInt("limit", 0), 0, req.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(posts) == 0 {
		return mcp.NewToolResultText("no posts found"), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"posts": posts, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPostFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...))
}
