// ABOUTME: CLI commands for exercise photos.
// ABOUTME: Lists, uploads, fetches and deletes JPEG photos by their storage path.
package main

import (
	"fmt"
	"os"
	"path"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/models"
)

var (
	photoAt     int64
	photoOutput string
)

var photoCmd = &cobra.Command{
	Use:     "photo",
	Aliases: []string{"p"},
	Short:   "Manage exercise photos",
	Long: `Manage the progress photos attached to an exercise.

A photo is identified by its path: <user>/<exercise>/<timestamp>.jpg

EXAMPLES:

  pump photo add <exercise-id> squat.jpg
  pump photo list <exercise-id>
  pump photo get <photo-id> -o squat.jpg
  pump photo rm <photo-id>`,
}

var photoListCmd = &cobra.Command{
	Use:     "list <exercise-id>",
	Aliases: []string{"ls"},
	Short:   "List the photos of an exercise, newest first",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		photos, err := pumpApp.Syncer.Photos(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list photos: %w", err)
		}
		if len(photos) == 0 {
			fmt.Println("No photos yet.")
			return nil
		}
		for _, p := range photos {
			fmt.Printf("%s  %s\n",
				faint.Sprint(p.Time().Format("2006-01-02 15:04")),
				p.ID)
		}
		return nil
	},
}

var photoAddCmd = &cobra.Command{
	Use:   "add <exercise-id> <file>",
	Short: "Upload a JPEG photo for an exercise",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read photo: %w", err)
		}
		p, err := pumpApp.Syncer.UploadPhoto(cmd.Context(), models.PhotoInput{
			ExerciseID: args[0],
			Data:       data,
			Timestamp:  photoAt,
		})
		if err != nil {
			return fmt.Errorf("failed to upload photo: %w", err)
		}
		color.Green("✓ Uploaded %s", p.ID)
		return nil
	},
}

var photoGetCmd = &cobra.Command{
	Use:   "get <photo-id>",
	Short: "Save a photo to a file",
	Long: `Save a stored photo to a file.

Only available with the local and charm backends; the http backend serves
photos from the URL shown by 'pump photo list'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ok := pumpApp.Charm()
		if !ok {
			return fmt.Errorf("photo get needs the local or charm backend")
		}
		data, err := client.PhotoData(cmd.Context(), pumpApp.UserID(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get photo: %w", err)
		}

		out := photoOutput
		if out == "" {
			out = path.Base(args[0])
		}
		if err := os.WriteFile(out, data, 0600); err != nil {
			return fmt.Errorf("failed to write photo: %w", err)
		}
		color.Green("✓ Saved %s (%d bytes)", out, len(data))
		return nil
	},
}

var photoRmCmd = &cobra.Command{
	Use:     "rm <photo-id>",
	Aliases: []string{"delete", "del"},
	Short:   "Delete a photo",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pumpApp.Syncer.DeletePhoto(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete photo: %w", err)
		}
		color.Green("✓ Deleted %s", args[0])
		return nil
	},
}

func init() {
	photoAddCmd.Flags().Int64Var(&photoAt, "at", 0, "capture time in Unix milliseconds (default now)")
	photoGetCmd.Flags().StringVarP(&photoOutput, "output", "o", "", "output file (default <timestamp>.jpg)")

	photoCmd.AddCommand(photoListCmd)
	photoCmd.AddCommand(photoAddCmd)
	photoCmd.AddCommand(photoGetCmd)
	photoCmd.AddCommand(photoRmCmd)
	rootCmd.AddCommand(photoCmd)
}
