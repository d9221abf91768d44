package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string            `json:"question" jsonschema:"the question to ask of the indexed corpus"`
	History  []QueryHistoryTurn `json:"history,omitempty" jsonschema:"prior turns of the conversation, oldest first"`
}

// QueryHistoryTurn is one prior turn of a conversation.
type QueryHistoryTurn struct {
	Role    string `json:"role" jsonschema:"'user' or 'assistant'"`
	Content string `json:"content"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Content string       `json:"content"`
	Sources []SourceHit  `json:"sources"`
}

// SourceHit is one retrieval hit grounding an answer.
type SourceHit struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Ask a question grounded in the indexed document corpus",
	}, s.handleQuery)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	history := make([]domain.ChatMessage, len(input.History))
	for i, turn := range input.History {
		role := domain.RoleUser
		if turn.Role == string(domain.RoleAssistant) {
			role = domain.RoleAssistant
		}
		history[i] = domain.ChatMessage{Role: role, Content: turn.Content}
	}

	answer, err := s.ports.RAG.Query(ctx, input.Question, history)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Content: answer.Content,
		Sources: make([]SourceHit, len(answer.Sources)),
	}
	for i, hit := range answer.Sources {
		output.Sources[i] = SourceHit{ID: hit.ID, Content: hit.Content, Score: hit.Score}
	}

	return nil, output, nil
}
