package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	maxPrintedChunks = 50
	embeddingSample  = 8
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a PDF, text or markdown file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var chunksCmd = &cobra.Command{
	Use:   "chunks [pdf-id]",
	Short: "Print the stored chunks of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunks,
}

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings [pdf-id]",
	Short: "Print the dimension and leading values of each stored vector",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbeddings,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [pdf-id] [question]",
	Short: "Show the chunks retrieved for a question",
	Args:  cobra.ExactArgs(2),
	RunE:  runRetrieve,
}

// retrieveTopK overrides TOP_K for the retrieve command when positive.
var retrieveTopK int

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "Number of chunks to retrieve (default TOP_K)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(embeddingsCmd)
	rootCmd.AddCommand(retrieveCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.rag.IngestFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", args[0], err)
	}

	cmd.Printf("%s: %s\n", resp.Message, args[0])
	cmd.Printf("  pdf_id: %s\n", resp.PDFID)
	cmd.Printf("  chunks: %d\n", resp.Chunks)
	return nil
}

func runChunks(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	texts, err := a.rag.GetTexts(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(texts) == 0 {
		cmd.Printf("No chunks found for pdf: %s\n", args[0])
		return nil
	}

	for i, text := range texts[:min(len(texts), maxPrintedChunks)] {
		cmd.Printf("[%d] %s\n\n", i, text)
	}
	cmd.Printf("Total: %d chunks\n", len(texts))
	return nil
}

func runEmbeddings(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.rag.GetAllEmbeddings(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load embeddings: %w", err)
	}
	if len(records) == 0 {
		cmd.Printf("No embeddings found for pdf: %s\n", args[0])
		return nil
	}

	for _, rec := range records {
		cmd.Printf("[%d] dim=%d %v\n", rec.ChunkIndex, rec.Dimension, rec.Vector[:min(len(rec.Vector), embeddingSample)])
	}
	cmd.Printf("Total: %d embeddings\n", len(records))
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	topK := a.cfg.TopK
	if retrieveTopK > 0 {
		topK = retrieveTopK
	}

	retrieval, err := a.rag.AnswerQuery(cmd.Context(), args[0], args[1], topK)
	if err != nil {
		return fmt.Errorf("failed to retrieve: %w", err)
	}
	if len(retrieval.Results) == 0 {
		cmd.Printf("No chunks found for pdf: %s\n", args[0])
		return nil
	}

	for i, res := range retrieval.Results {
		cmd.Printf("%d. chunk %d (score %.4f)\n   %s\n", i+1, res.Record.ChunkIndex, res.Score, res.Record.Text)
	}
	return nil
}
