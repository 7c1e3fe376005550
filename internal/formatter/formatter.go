// package formatter provides functions to export backlog data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/playlog/steamsync/internal/models"
)

// Row is one backlog entry joined with its catalog title for export.
type Row struct {
	Rank            int
	Name            string
	AppID           string
	PlaytimeMinutes int
	Source          models.EntrySource
	CoverURL        string
}

// BacklogExport is a user's full backlog, ordered by rank, ready for export.
type BacklogExport struct {
	UserID string
	Rows   []Row
}

// ExportToCSV converts a BacklogExport to CSV format with columns: Rank, Title, AppID, Playtime, Source
func ExportToCSV(export *BacklogExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "Title", "AppID", "Playtime", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range export.Rows {
		record := []string{
			strconv.Itoa(row.Rank),
			row.Name,
			row.AppID,
			strconv.Itoa(row.PlaytimeMinutes),
			string(row.Source),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a BacklogExport to Markdown format with optional cover image
func ExportToMarkdown(export *BacklogExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Backlog for %s\n\n", export.UserID))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Titles**: %d\n\n", len(export.Rows)))

	buf.WriteString("## Titles\n\n")
	for _, row := range export.Rows {
		sourcePart := ""
		if row.Source == models.SourceManual {
			sourcePart = " (manual)"
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", row.Rank, row.Name, sourcePart, FormatPlaytime(row.PlaytimeMinutes)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a BacklogExport to plain text format
func ExportToText(export *BacklogExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Backlog: %s\n", export.UserID))
	buf.WriteString(fmt.Sprintf("Titles: %d\n\n", len(export.Rows)))

	for _, row := range export.Rows {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", row.Rank, row.Name, FormatPlaytime(row.PlaytimeMinutes)))
	}

	return buf.Bytes(), nil
}

// FormatPlaytime renders minutes as "12h 30m" (or "45m" under an hour).
func FormatPlaytime(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteCSVExport exports a backlog to CSV format.
//
// Defaults to {userID}_backlog.csv as the filename.
func WriteCSVExport(export *BacklogExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_backlog.csv", export.UserID)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a backlog to Markdown format in a dedicated directory.
//
// Directory name defaults to {userID}_backlog.
// The imageURL parameter is optional - if provided, attempts to download the
// top title's cover image. Creates {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *BacklogExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = fmt.Sprintf("%s_backlog", export.UserID)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := fmt.Sprintf("%s/%s", outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a backlog to plain text format.
//
// Defaults to {userID}_backlog.txt as the filename.
func WriteTextExport(export *BacklogExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_backlog.txt", export.UserID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
