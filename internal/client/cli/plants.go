package cli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bloombuddy/internal/netx"
)

func plantsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "plants",
		Short: "List your plants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := e.connect(cmd)
			if err != nil {
				return err
			}
			defer api.Close()

			ctx, cancel := e.requestContext(cmd.Context())
			defer cancel()

			plants, err := api.ListPlants(ctx)
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if len(plants) == 0 {
				fmt.Fprintln(out, "No plants yet.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tWATERING\tLIGHT\tTEMPERATURE\tHUMIDITY")
			for _, p := range plants {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Name, p.WateringFrequency, p.LightLevel, p.Temperature, p.Humidity)
			}
			return tw.Flush()
		},
	}
}

// imageContentType picks the MIME type from the file extension, falling
// back to sniffing the first bytes.
func imageContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
	}
	ct := http.DetectContentType(data)
	mt, _, _ := mime.ParseMediaType(ct)
	return mt
}

func photoCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <plant-id> <file>",
		Short: "Upload a photo for a plant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plantID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || plantID <= 0 {
				return fmt.Errorf("invalid plant id %q", args[0])
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			contentType := imageContentType(args[1], data)
			if !strings.HasPrefix(contentType, "image/") {
				return fmt.Errorf("%s does not look like an image (%s)", args[1], contentType)
			}

			api, err := e.connect(cmd)
			if err != nil {
				return err
			}
			defer api.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.UploadTimeout)
			defer cancel()

			up, err := api.PresignPlantImage(ctx, contentType)
			if err != nil {
				return explain(err)
			}
			if err := netx.PutPresigned(ctx, e.deps.HTTPClient, up.UploadURL, contentType, data); err != nil {
				return err
			}
			plant, err := api.SetPlantImage(ctx, plantID, up.Key)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", plant.Name, plant.ImageURL)
			return nil
		},
	}
}
