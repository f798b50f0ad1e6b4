package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"pulsedesk/internal/dashboard"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Controller *dashboard.Controller
}

// NewMCPServer creates an MCP server exposing the desk's operations as
// tools and its collections as resources. Publishing over MCP returns the
// share-intent URL instead of opening a browser; the calling agent decides
// what to do with it.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"pulsedesk",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("pulsedesk — local content desk: discover GCC industry news, draft social posts, edit and publish them."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("discover_news",
			mcp.WithDescription("Fetch the latest GCC industry stories, replacing the current article collection."),
		),
		mcpDiscoverNews(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_draft",
			mcp.WithDescription("Draft a social post from one article. The new draft lands at the front of the post collection."),
			mcp.WithString("article_id", mcp.Description("ID of the article to draft from"), mcp.Required()),
		),
		mcpGenerateDraft(deps),
	)

	s.AddTool(
		mcp.NewTool("save_post",
			mcp.WithDescription("Replace the content of a draft post."),
			mcp.WithString("post_id", mcp.Description("ID of the post to edit"), mcp.Required()),
			mcp.WithString("content", mcp.Description("New post body"), mcp.Required()),
		),
		mcpSavePost(deps),
	)

	s.AddTool(
		mcp.NewTool("publish_post",
			mcp.WithDescription("Publish a post: records it as published and returns the share-intent URL for manual confirmation."),
			mcp.WithString("post_id", mcp.Description("ID of the post to publish"), mcp.Required()),
		),
		mcpPublishPost(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"desk://articles",
			"Articles",
			mcp.WithResourceDescription("Current article collection as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceArticles(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"desk://posts",
			"Posts",
			mcp.WithResourceDescription("Current post collection as JSON, newest drafts first"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourcePosts(deps),
	)

	return s
}

func mcpDiscoverNews(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		articles, err := deps.Controller.RefreshNews(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("discovery failed: %v", err)), nil
		}

		b, err := json.Marshal(articles)
		if err != nil {
			return mcpError(fmt.Sprintf("marshalling articles: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGenerateDraft(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		articleID, err := req.RequireString("article_id")
		if err != nil {
			return mcpError("article_id is required"), nil
		}

		post, err := deps.Controller.GenerateDraft(ctx, articleID)
		if err != nil {
			if errors.Is(err, dashboard.ErrArticleNotFound) {
				return mcpError(fmt.Sprintf("article %s not found", articleID)), nil
			}
			return mcpError(fmt.Sprintf("generating draft: %v", err)), nil
		}

		b, err := json.Marshal(post)
		if err != nil {
			return mcpError(fmt.Sprintf("marshalling post: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSavePost(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		postID, err := req.RequireString("post_id")
		if err != nil {
			return mcpError("post_id is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		if err := deps.Controller.SavePost(postID, content); err != nil {
			return mcpError(fmt.Sprintf("saving post: %v", err)), nil
		}
		return mcpText(`{"saved":true}`), nil
	}
}

func mcpPublishPost(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		postID, err := req.RequireString("post_id")
		if err != nil {
			return mcpError("post_id is required"), nil
		}

		shareURL, err := deps.Controller.PublishPost(ctx, postID)
		if err != nil {
			if errors.Is(err, dashboard.ErrPostNotFound) {
				return mcpError(fmt.Sprintf("post %s not found", postID)), nil
			}
			return mcpError(fmt.Sprintf("publish failed: %v", err)), nil
		}

		b, err := json.Marshal(map[string]string{"share_url": shareURL})
		if err != nil {
			return mcpError(fmt.Sprintf("marshalling result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceArticles(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Controller.Articles())
		if err != nil {
			return nil, fmt.Errorf("marshalling articles: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourcePosts(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Controller.Posts())
		if err != nil {
			return nil, fmt.Errorf("marshalling posts: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
