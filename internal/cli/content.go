package cli

import (
	"errors"
	"os"

	"apeBeacon/domain"

	"github.com/spf13/cobra"
)

var errEmptyBody = errors.New("content body is empty, use --body or --body-file")

func init() {
	contentCmd := &cobra.Command{
		Use:   "content",
		Short: "Manage ranked content candidates",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a content candidate",
		Run:   runContentAdd,
	}
	add.Flags().String("id", "", "Customer id (required)")
	add.Flags().String("content-id", "", "Content id (generated when empty)")
	add.Flags().String("slot", "", "Placeholder id, empty for any slot")
	add.Flags().String("body", "", "HTML fragment")
	add.Flags().String("body-file", "", "Read the HTML fragment from a file")
	add.Flags().String("styles", "", "CSS for the fragment")
	add.Flags().Float64("score", 1, "Offline score")
	add.MarkFlagRequired("id")

	contentCmd.AddCommand(add)
	RootCmd.AddCommand(contentCmd)
}

func runContentAdd(cmd *cobra.Command, args []string) {
	customerID, _ := cmd.Flags().GetString("id")
	contentID, _ := cmd.Flags().GetString("content-id")
	slot, _ := cmd.Flags().GetString("slot")
	body, _ := cmd.Flags().GetString("body")
	bodyFile, _ := cmd.Flags().GetString("body-file")
	styles, _ := cmd.Flags().GetString("styles")
	score, _ := cmd.Flags().GetFloat64("score")

	if bodyFile != "" {
		raw, err := os.ReadFile(bodyFile)
		if err != nil {
			exitErr("read body file", err)
		}
		body = string(raw)
	}
	if body == "" {
		exitErr("add content", errEmptyBody)
	}

	svc, closeFn, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeFn()

	item, err := svc.AddContent(cmd.Context(), domain.Content{
		ID:         contentID,
		CustomerID: customerID,
		Slot:       slot,
		Body:       body,
		Styles:     styles,
		Score:      score,
	})
	if err != nil {
		exitErr("add content", err)
	}

	printJSON(cmd, item)
}
