package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

var chatHistory []string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions grounded in the indexed corpus",
}

var chatAskCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and print the full answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatAsk,
}

var chatStreamCmd = &cobra.Command{
	Use:   "stream [question]",
	Short: "Ask a question and stream the answer as it's generated",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatStream,
}

func init() {
	for _, cmd := range []*cobra.Command{chatAskCmd, chatStreamCmd} {
		cmd.Flags().StringArrayVar(&chatHistory, "history", nil, "prior turn as role=content, repeatable, oldest first")
	}
	chatCmd.AddCommand(chatAskCmd)
	chatCmd.AddCommand(chatStreamCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChatAsk(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	history, err := parseHistory(chatHistory)
	if err != nil {
		return err
	}

	answer, err := ragService.Query(cmd.Context(), args[0], history)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cmd.Println(answer.Content)
	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, hit := range answer.Sources {
			cmd.Printf("  [%.2f] %s\n", hit.Score, hit.ID)
		}
	}
	return nil
}

func runChatStream(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	history, err := parseHistory(chatHistory)
	if err != nil {
		return err
	}

	frames, err := ragService.QueryStream(cmd.Context(), args[0], history)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	for frame := range frames {
		switch frame.Kind {
		case domain.RAGFrameSources:
			if len(frame.Sources) > 0 {
				cmd.Println("Sources:")
				for _, hit := range frame.Sources {
					cmd.Printf("  [%.2f] %s\n", hit.Score, hit.ID)
				}
				cmd.Println()
			}
		case domain.RAGFrameContent:
			cmd.Print(frame.Content)
		case domain.RAGFrameError:
			return fmt.Errorf("stream failed: %w", frame.Err)
		case domain.RAGFrameDone:
			cmd.Println()
		}
	}
	return nil
}

func parseHistory(turns []string) ([]domain.ChatMessage, error) {
	if len(turns) == 0 {
		return nil, nil
	}
	messages := make([]domain.ChatMessage, len(turns))
	for i, turn := range turns {
		role, content, ok := strings.Cut(turn, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --history turn %q, expected role=content", turn)
		}
		switch domain.ChatRole(role) {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
			messages[i] = domain.ChatMessage{Role: domain.ChatRole(role), Content: content}
		default:
			return nil, fmt.Errorf("invalid --history role %q", role)
		}
	}
	return messages, nil
}
