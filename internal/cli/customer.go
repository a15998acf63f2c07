package cli

import (
	"context"

	"apeBeacon/domain"

	"github.com/spf13/cobra"
)

type adminService interface {
	Login(ctx context.Context, username, password string) (string, error)
	CreateCustomer(ctx context.Context, id, displayName string, sites []string) (domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (domain.Customer, error)
	AddSite(ctx context.Context, customerID, site string) (domain.CustomerSite, error)
	AddContent(ctx context.Context, c domain.Content) (domain.Content, error)
}

func init() {
	customerCmd := &cobra.Command{
		Use:   "customer",
		Short: "Create or inspect customers",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Register a customer with its sites",
		Run:   runCustomerCreate,
	}
	create.Flags().String("id", "", "Customer id (required)")
	create.Flags().String("name", "", "Display name (required)")
	create.Flags().StringSlice("site", nil, "Site domain, repeatable")
	create.MarkFlagRequired("id")
	create.MarkFlagRequired("name")

	get := &cobra.Command{
		Use:   "get",
		Short: "Show a customer and its sites",
		Run:   runCustomerGet,
	}
	get.Flags().String("id", "", "Customer id (required)")
	get.MarkFlagRequired("id")

	customerCmd.AddCommand(create, get)
	RootCmd.AddCommand(customerCmd)
}

func runCustomerCreate(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	sites, _ := cmd.Flags().GetStringSlice("site")

	svc, closeFn, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeFn()

	c, err := svc.CreateCustomer(cmd.Context(), id, name, sites)
	if err != nil {
		exitErr("create customer", err)
	}

	printJSON(cmd, c)
}

func runCustomerGet(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")

	svc, closeFn, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeFn()

	c, err := svc.GetCustomer(cmd.Context(), id)
	if err != nil {
		exitErr("get customer", err)
	}

	printJSON(cmd, c)
}
