package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/allisson/letterbox/internal/access/domain"
	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
)

// RecipientOptions carries the create-recipient flags. Theme is a JSON object.
type RecipientOptions struct {
	Slug          string
	Name          string
	Nickname      string
	Description   string
	MainPhoto     string
	GalleryPhotos []string
	LetterFile    string
	Theme         string
	OrderIndex    int
	Published     bool
	AccessKey     string
}

func readLetterFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read letter file: %w", err)
	}
	return string(content), nil
}

// parseTheme decodes a --theme value. An empty string yields nil.
func parseTheme(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}

	var theme map[string]any
	if err := json.Unmarshal([]byte(raw), &theme); err != nil {
		return nil, fmt.Errorf("theme must be a JSON object: %w", err)
	}
	return theme, nil
}

// RunCreateRecipient creates a recipient and prints its access key once. A random key is
// generated when opts.AccessKey is empty. The letter body is read from opts.LetterFile.
//
// Requirements: Database must be migrated and accessible.
func RunCreateRecipient(
	ctx context.Context,
	recipientUseCase accessUseCase.RecipientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	opts RecipientOptions,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	var letter string
	if opts.LetterFile != "" {
		content, err := readLetterFile(opts.LetterFile)
		if err != nil {
			return err
		}
		letter = content
	}

	theme, err := parseTheme(opts.Theme)
	if err != nil {
		return err
	}

	logger.Info("creating recipient", slog.String("slug", opts.Slug))

	output, err := recipientUseCase.Create(ctx, &domain.CreateRecipientInput{
		Slug:          opts.Slug,
		Name:          opts.Name,
		Nickname:      opts.Nickname,
		Description:   opts.Description,
		MainPhoto:     opts.MainPhoto,
		GalleryPhotos: opts.GalleryPhotos,
		LetterContent: letter,
		ThemeConfig:   theme,
		OrderIndex:    opts.OrderIndex,
		IsPublished:   opts.Published,
		AccessKey:     opts.AccessKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}

	recipient := output.Recipient
	if format == formatJSON {
		if err := writeJSON(writer, map[string]any{
			"id":           recipient.ID.String(),
			"slug":         recipient.Slug,
			"name":         recipient.Name,
			"is_published": recipient.IsPublished,
			"access_key":   output.AccessKey,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Recipient created successfully\n")
		_, _ = fmt.Fprintf(writer, "ID:         %s\n", recipient.ID)
		_, _ = fmt.Fprintf(writer, "Slug:       %s\n", recipient.Slug)
		_, _ = fmt.Fprintf(writer, "Name:       %s\n", recipient.Name)
		_, _ = fmt.Fprintf(writer, "Published:  %t\n", recipient.IsPublished)
		_, _ = fmt.Fprintf(writer, "Access Key: %s\n\n", output.AccessKey)
		_, _ = fmt.Fprintf(writer, "WARNING: Save the access key securely. It will not be shown again.\n")
	}

	logger.Info("recipient created successfully",
		slog.String("recipient_id", recipient.ID.String()),
		slog.String("slug", recipient.Slug),
		slog.Bool("is_published", recipient.IsPublished),
	)

	return nil
}
