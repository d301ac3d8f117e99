package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ecodine/ecodine/config"
)

func AddPaymentFlags(c *cobra.Command) {
	c.Flags().
		BoolVarP(&config.WithEth, "with-eth", "e", false, "pay with the native currency through purchaseDishWithEth.")
}

func AddDishFlags(c *cobra.Command) {
	c.Flags().
		StringVarP(&config.DishName, "name", "n", "", "dish name.")
	c.Flags().
		StringVarP(&config.DishPrice, "price", "p", "", "dish price in the native currency, e.g. 0.01.")
	c.Flags().
		BoolVar(&config.Inactive, "inactive", false, "keep the dish off the menu.")
}
