package cli

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/client"
	"github.com/evcraddock/visitor-desk/internal/images"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a visitor photo",
		Long:  "Upload an image and print its storage key for use with 'vd add --photo' or as an image reference.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			key, err := uploadFile(ctx, newAPIClient(), args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(map[string]string{"key": key})
			}
			fmt.Println(key)
			return nil
		},
	}
}

// uploadFile validates the image locally, then uploads it.
func uploadFile(ctx context.Context, c *client.Client, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading photo: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	contentType, err = images.Validate(contentType, data)
	if err != nil {
		return "", fmt.Errorf("photo %s: %w", path, err)
	}

	key, err := c.UploadImage(ctx, contentType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("uploading photo: %w", err)
	}
	return key, nil
}
