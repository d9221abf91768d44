package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

var (
	configOwner        string
	configLLMKind      string
	configEmbeddingKind string
	configVectorKind   string
	configLLMParams    []string
	configEmbeddingParams []string
	configVectorParams []string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage provider configurations",
	Long:  `Create, update, activate, list, and inspect provider configuration snapshots.`,
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new configuration snapshot",
	Args:  cobra.NoArgs,
	RunE:  runConfigCreate,
}

var configUpdateCmd = &cobra.Command{
	Use:   "update [config-id]",
	Short: "Patch an existing configuration snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUpdate,
}

var configActivateCmd = &cobra.Command{
	Use:   "activate [config-id]",
	Short: "Activate a configuration snapshot for an owner",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigActivate,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration snapshots for an owner",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [config-id]",
	Short: "Show a configuration snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete [config-id]",
	Short: "Delete a configuration snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigDelete,
}

var configStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status for an owner's active configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigStatus,
}

func init() {
	// "default" matches the coordinator's own DefaultOwner constant.
	configCmd.PersistentFlags().StringVar(&configOwner, "owner", "default", "configuration owner")

	configCreateCmd.Flags().StringVar(&configLLMKind, "llm", "", "LLM provider kind (openai, azure-openai, anthropic, ollama)")
	configCreateCmd.Flags().StringVar(&configEmbeddingKind, "embedding", "", "embedding provider kind (openai, ollama)")
	configCreateCmd.Flags().StringVar(&configVectorKind, "vector", "", "vector provider kind (faiss, pinecone, chroma)")
	configCreateCmd.Flags().StringArrayVar(&configLLMParams, "llm-param", nil, "LLM provider param as key=value, repeatable")
	configCreateCmd.Flags().StringArrayVar(&configEmbeddingParams, "embedding-param", nil, "embedding provider param as key=value, repeatable")
	configCreateCmd.Flags().StringArrayVar(&configVectorParams, "vector-param", nil, "vector provider param as key=value, repeatable")

	configUpdateCmd.Flags().StringVar(&configLLMKind, "llm", "", "LLM provider kind")
	configUpdateCmd.Flags().StringVar(&configEmbeddingKind, "embedding", "", "embedding provider kind")
	configUpdateCmd.Flags().StringVar(&configVectorKind, "vector", "", "vector provider kind")
	configUpdateCmd.Flags().StringArrayVar(&configLLMParams, "llm-param", nil, "LLM provider param as key=value, repeatable")
	configUpdateCmd.Flags().StringArrayVar(&configEmbeddingParams, "embedding-param", nil, "embedding provider param as key=value, repeatable")
	configUpdateCmd.Flags().StringArrayVar(&configVectorParams, "vector-param", nil, "vector provider param as key=value, repeatable")

	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configUpdateCmd)
	configCmd.AddCommand(configActivateCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configStatusCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigCreate(cmd *cobra.Command, _ []string) error {
	if configService == nil {
		return errors.New("configuration service not configured")
	}
	if configLLMKind == "" || configEmbeddingKind == "" || configVectorKind == "" {
		return errors.New("--llm, --embedding, and --vector are all required")
	}

	llmParams, err := parseParams(configLLMParams)
	if err != nil {
		return err
	}
	embeddingParams, err := parseParams(configEmbeddingParams)
	if err != nil {
		return err
	}
	vectorParams, err := parseParams(configVectorParams)
	if err != nil {
		return err
	}

	snap := &domain.ConfigurationSnapshot{
		Owner:                 configOwner,
		LLMProviderKind:       domain.LLMProviderKind(configLLMKind),
		LLMParams:             llmParams,
		EmbeddingProviderKind: domain.EmbeddingProviderKind(configEmbeddingKind),
		EmbeddingParams:       embeddingParams,
		VectorProviderKind:    domain.VectorProviderKind(configVectorKind),
		VectorParams:          vectorParams,
	}

	if err := configService.Create(cmd.Context(), snap); err != nil {
		return fmt.Errorf("creating configuration: %w", err)
	}
	printConfig(cmd, snap)
	return nil
}

func runConfigUpdate(cmd *cobra.Command, args []string) error {
	if configService == nil {
		return errors.New("configuration service not configured")
	}

	var patch domain.ConfigurationPatch
	if configLLMKind != "" {
		kind := domain.LLMProviderKind(configLLMKind)
		patch.LLMProviderKind = &kind
	}
	if configEmbeddingKind != "" {
		kind := domain.EmbeddingProviderKind(configEmbeddingKind)
		patch.EmbeddingProviderKind = &kind
	}
	if configVectorKind != "" {
		kind := domain.VectorProviderKind(configVectorKind)
		patch.VectorProviderKind = &kind
	}

	var err error
	if patch.LLMParams, err = parseParams(configLLMParams); err != nil {
		return err
	}
	if patch.EmbeddingParams, err = parseParams(configEmbeddingParams); err != nil {
		return err
	}
	if patch.VectorParams, err = parseParams(configVectorParams); err != nil {
		return err
	}

	if err := configService.Update(cmd.Context(), args[0], patch); err != nil {
		return fmt.Errorf("updating configuration: %w", err)
	}
	cmd.Printf("Updated configuration %s.\n", args[0])
	return nil
}

func runConfigActivate(cmd *cobra.Command, args []string) error {
	if configService == nil {
		return errors.New("configuration service not configured")
	}
	if err := configService.Activate(cmd.Context(), configOwner, args[0]); err != nil {
		return fmt.Errorf("activating configuration: %w", err)
	}
	cmd.Printf("Activated configuration %s for owner %s.\n", args[0], configOwner)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configService == nil {
		return errors.New("configuration service not configured")
	}
	snaps, err := configService.List(cmd.Context(), configOwner)
	if err != nil {
		return fmt.Errorf("listing configurations: %w", err)
	}
	if len(snaps) == 0 {
		cmd.Println("No configurations found.")
		return nil
	}
	for i := range snaps {
		active := ""
		if snaps[i].Active {
			active = " (active)"
		}
		cmd.Printf("  %s  llm=%s  embedding=%s  vector=%s%s\n",
			snaps[i].ID, snaps[i].LLMProviderKind, snaps[i].EmbeddingProviderKind, snaps[i].VectorProviderKind, active)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configService == nil {
		return errors.New("configuration service not configured")
	}
	snap, err := configService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting configuration: %w", err)
	}
	printConfig(cmd, snap)
	return nil
}

func runConfigDelete(cmd *cobra.Command, args []string) error {
	if configService == nil {
		return errors.New("configuration service not configured")
	}
	if err := configService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting configuration: %w", err)
	}
	cmd.Printf("Deleted configuration %s.\n", args[0])
	return nil
}

func runConfigStatus(cmd *cobra.Command, _ []string) error {
	if configService == nil {
		return errors.New("configuration service not configured")
	}
	status, err := configService.SystemStatus(cmd.Context(), configOwner)
	if err != nil {
		return fmt.Errorf("getting status: %w", err)
	}
	cmd.Printf("Active configuration: %t\n", status.HasActiveConfig)
	cmd.Printf("Documents indexed:    %d\n", status.DocumentCount)
	printProviderStatus(cmd, "LLM", status.LLMStatus)
	printProviderStatus(cmd, "Embedding", status.EmbeddingStatus)
	printProviderStatus(cmd, "Vector", status.VectorStatus)
	return nil
}

func printProviderStatus(cmd *cobra.Command, label string, status domain.ProviderStatus) {
	if status.Connected {
		cmd.Printf("%-10s connected\n", label)
		return
	}
	cmd.Printf("%-10s not connected: %s\n", label, status.Error)
}

func printConfig(cmd *cobra.Command, snap *domain.ConfigurationSnapshot) {
	cmd.Printf("Configuration: %s\n\n", snap.ID)
	cmd.Printf("  Owner:     %s\n", snap.Owner)
	cmd.Printf("  LLM:       %s\n", snap.LLMProviderKind)
	cmd.Printf("  Embedding: %s\n", snap.EmbeddingProviderKind)
	cmd.Printf("  Vector:    %s\n", snap.VectorProviderKind)
	cmd.Printf("  Active:    %t\n", snap.Active)
}
