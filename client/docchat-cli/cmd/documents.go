package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listJSON bool

var (
	bold      = color.New(color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	statusRed = color.New(color.FgRed).SprintFunc()
	statusOK  = color.New(color.FgGreen).SprintFunc()
)

func colorStatus(status string) string {
	if status == "failed" {
		return statusRed(status)
	}
	return statusOK(status)
}

var uploadCmd = &cobra.Command{
	Use:   "upload [file.pdf]",
	Short: "Upload and index a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newClient().upload(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		cmd.Printf("Indexed %s: %d chunks\n", bold(rec.FileName), rec.ChunkCount)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your uploads, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		uploads, err := newClient().listUploads(cmd.Context())
		if err != nil {
			return err
		}
		if listJSON {
			data, err := json.MarshalIndent(uploads, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		}
		if len(uploads) == 0 {
			cmd.Println("No uploads yet.")
			return nil
		}
		for _, u := range uploads {
			cmd.Printf("  %-40s %-8s %4d chunks  %s\n", u.FileName, colorStatus(u.Status), u.ChunkCount, u.UploadedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ans, err := newClient().ask(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Println(ans.Answer)
		if len(ans.Sources) > 0 {
			cmd.Println()
			cmd.Println(boldCyan("Sources:"))
			for i, s := range ans.Sources {
				cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, s.SourceName, s.SequenceIndex, s.Score)
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output uploads as JSON")
	rootCmd.AddCommand(uploadCmd, listCmd, askCmd)
}
