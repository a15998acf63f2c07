package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	siteCmd := &cobra.Command{
		Use:   "site",
		Short: "Manage customer sites",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Register a site domain for a customer",
		Run:   runSiteAdd,
	}
	add.Flags().String("id", "", "Customer id (required)")
	add.Flags().String("domain", "", "Site domain, scheme is stripped (required)")
	add.MarkFlagRequired("id")
	add.MarkFlagRequired("domain")

	siteCmd.AddCommand(add)
	RootCmd.AddCommand(siteCmd)
}

func runSiteAdd(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	siteDomain, _ := cmd.Flags().GetString("domain")

	svc, closeFn, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeFn()

	site, err := svc.AddSite(cmd.Context(), id, siteDomain)
	if err != nil {
		exitErr("add site", err)
	}

	printJSON(cmd, site)
}
