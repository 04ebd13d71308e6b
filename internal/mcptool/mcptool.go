// Package mcptool exposes the gradient tools over the Model Context
// Protocol. Each tool is a schema constructor plus a typed handler; the
// handlers translate between MCP payloads and the service layer, and report
// domain failures as in-band tool errors rather than protocol errors.
package mcptool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sakif/gradient-mcp/internal/apperror"
	"github.com/sakif/gradient-mcp/internal/auth"
	"github.com/sakif/gradient-mcp/internal/service"
)

// Invoker is the slice of the service layer the tool handlers need.
type Invoker interface {
	Handle(ctx context.Context, tool string, args service.ToolArgs, bearer string) (*service.ToolResult, error)
}

// Register adds all gradient tools to the MCP server.
func Register(mcpServer *mcp.Server, invoker Invoker) {
	mcp.AddTool(mcpServer, CreateGradientTweetTool(), CreateGradientTweetHandler(invoker))
	mcp.AddTool(mcpServer, GetMyProfileTool(), GetMyProfileHandler(invoker))
}

// CreateGradientTweetInput is the MCP tool input for gradient tweet creation.
type CreateGradientTweetInput struct {
	Content     string `json:"content" jsonschema:"tweet text to render on the gradient card"`
	PresetIndex *int   `json:"presetIndex,omitempty" jsonschema:"optional gradient preset index; defaults to the first preset"`
}

// GradientTweetResult is the MCP tool output for gradient tweet creation.
type GradientTweetResult struct {
	Content     string         `json:"content" jsonschema:"tweet text"`
	PresetIndex int            `json:"presetIndex" jsonschema:"resolved gradient preset index"`
	PresetName  string         `json:"presetName" jsonschema:"gradient preset name"`
	PresetCSS   string         `json:"presetCss" jsonschema:"CSS linear-gradient value for the preset"`
	Profile     ProfilePayload `json:"profile" jsonschema:"author shown on the card"`
}

// ProfilePayload is the author block rendered on a gradient card.
type ProfilePayload struct {
	Handle    string `json:"handle" jsonschema:"account handle"`
	Name      string `json:"name" jsonschema:"display name"`
	AvatarURL string `json:"avatarUrl" jsonschema:"avatar image URL"`
}

// MyProfileResult is the MCP tool output for profile retrieval.
type MyProfileResult struct {
	Profile ProfilePayload `json:"profile" jsonschema:"the caller's synced profile"`
}

// CreateGradientTweetTool defines the MCP tool schema for gradient tweet creation.
func CreateGradientTweetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        service.ToolCreateGradientTweet,
		Description: "Creates a beautiful gradient tweet card from the given text, using one of the built-in gradient presets.",
	}
}

// GetMyProfileTool defines the MCP tool schema for profile retrieval.
func GetMyProfileTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        service.ToolGetMyProfile,
		Description: "Returns the connected account's profile as it will appear on gradient cards. Requires authentication.",
	}
}

// CreateGradientTweetHandler executes a gradient tweet creation request.
func CreateGradientTweetHandler(invoker Invoker) mcp.ToolHandlerFor[CreateGradientTweetInput, GradientTweetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreateGradientTweetInput) (*mcp.CallToolResult, GradientTweetResult, error) {
		bearer, _ := auth.BearerFromContext(ctx)

		result, err := invoker.Handle(ctx, service.ToolCreateGradientTweet, service.ToolArgs{
			Content:     input.Content,
			PresetIndex: input.PresetIndex,
		}, bearer)
		if err != nil {
			return errorResult(err), GradientTweetResult{}, nil
		}

		return nil, GradientTweetResult{
			Content:     result.Content,
			PresetIndex: result.PresetIndex,
			PresetName:  result.PresetName,
			PresetCSS:   result.PresetCSS,
			Profile:     payloadOf(result.Profile),
		}, nil
	}
}

// GetMyProfileHandler executes a profile retrieval request.
func GetMyProfileHandler(invoker Invoker) mcp.ToolHandlerFor[struct{}, MyProfileResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, MyProfileResult, error) {
		bearer, _ := auth.BearerFromContext(ctx)

		result, err := invoker.Handle(ctx, service.ToolGetMyProfile, service.ToolArgs{}, bearer)
		if err != nil {
			return errorResult(err), MyProfileResult{}, nil
		}

		return nil, MyProfileResult{Profile: payloadOf(result.Profile)}, nil
	}
}

func payloadOf(view service.ProfileView) ProfilePayload {
	return ProfilePayload{
		Handle:    view.Handle,
		Name:      view.Name,
		AvatarURL: view.AvatarURL,
	}
}

// errorResult maps a domain error to an in-band tool error. The machine
// code leads the text so clients can branch on it without parsing prose.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%s: %v", apperror.Code(err), err)},
		},
	}
}
