package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `Upload, list, inspect, reindex, and delete documents in the index.`,
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload and index one or more documents",
	Long:  `Uploads up to 10 files (pdf, docx, txt, md, html, json; 50 MiB each), indexing each synchronously.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentUpload,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Remove a document from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReindexCmd = &cobra.Command{
	Use:   "reindex [doc-id]",
	Short: "Reprocess a document's stored file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentReindex,
}

var documentClearAllCmd = &cobra.Command{
	Use:   "clear-all",
	Short: "Remove every document from the index",
	Args:  cobra.NoArgs,
	RunE:  runDocumentClearAll,
}

func init() {
	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReindexCmd)
	documentCmd.AddCommand(documentClearAllCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	ctx := context.Background()

	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		doc, err := documentService.Upload(ctx, filepath.Base(args[0]), content)
		if err != nil {
			return fmt.Errorf("uploading %s: %w", args[0], err)
		}
		printDocument(cmd, doc)
		return nil
	}

	files := make(map[string][]byte, len(args))
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		files[filepath.Base(path)] = content
	}

	result, err := documentService.UploadBatch(ctx, files, func(current, total int, filename string) {
		cmd.Printf("[%d/%d] %s\n", current, total, filename)
	})
	if err != nil {
		return fmt.Errorf("uploading batch: %w", err)
	}

	cmd.Printf("\nIndexed %d, failed %d\n", len(result.Processed)-len(result.Failed), len(result.Failed))
	for _, failure := range result.Failed {
		cmd.Printf("  %s: %v\n", failure.Filename, failure.Err)
	}
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s  %-10s  %-8s  %d chunks\n", docs[i].ID, docs[i].Filename, docs[i].Status, len(docs[i].Chunks))
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("getting document: %w", err)
	}
	printDocument(cmd, doc)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	cmd.Printf("Deleted document %s.\n", args[0])
	return nil
}

func runDocumentReindex(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Reindex(context.Background(), args[0]); err != nil {
		return fmt.Errorf("reindexing document: %w", err)
	}
	cmd.Printf("Reindexed document %s.\n", args[0])
	return nil
}

func runDocumentClearAll(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.ClearAll(context.Background()); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	cmd.Println("All documents cleared.")
	return nil
}

func printDocument(cmd *cobra.Command, doc *domain.Document) {
	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Filename:  %s\n", doc.Filename)
	cmd.Printf("  Status:    %s\n", doc.Status)
	cmd.Printf("  Size:      %d bytes\n", doc.SizeBytes)
	cmd.Printf("  Language:  %s\n", doc.Language)
	cmd.Printf("  Chunks:    %d\n", len(doc.Chunks))
	cmd.Printf("  Uploaded:  %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))
	if doc.ProcessedAt != nil {
		cmd.Printf("  Processed: %s\n", doc.ProcessedAt.Format("2006-01-02 15:04:05"))
	}
	if doc.ErrorMessage != "" {
		cmd.Printf("  Error:     %s\n", doc.ErrorMessage)
	}
}
